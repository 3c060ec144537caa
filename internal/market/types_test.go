package market

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestID_DecodesStringsNumbersAndNull(t *testing.T) {
	var v struct {
		A ID `json:"a"`
		B ID `json:"b"`
		C ID `json:"c"`
	}
	if err := json.Unmarshal([]byte(`{"a":"x1","b":42,"c":null}`), &v); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if v.A != "x1" || v.B != "42" || v.C != "" {
		t.Fatalf("ids = %q %q %q", v.A, v.B, v.C)
	}
	if err := json.Unmarshal([]byte(`{"a":true}`), &v); err == nil {
		t.Fatalf("expected error for bool id")
	}
}

func TestNormalizeUser_Variants(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want User
	}{
		{"canonical", `{"id":"1","name":"Ana","email":"ana@x.com","avatarUrl":"a.png"}`, User{ID: "1", Name: "Ana", Email: "ana@x.com", AvatarURL: "a.png"}},
		{"portuguese", `{"_id":7,"nome":"Bruno","email":"BRUNO@X.COM","foto":"b.png"}`, User{ID: "7", Name: "Bruno", Email: "bruno@x.com", AvatarURL: "b.png"}},
		{"blank preferred key", `{"id":"","userId":"u9","name":"  ","username":"carla"}`, User{ID: "u9", Name: "carla"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := NormalizeUser([]byte(tc.raw))
			if err != nil {
				t.Fatalf("NormalizeUser: %v", err)
			}
			if got != tc.want {
				t.Fatalf("got %+v, want %+v", got, tc.want)
			}
		})
	}
	if _, err := NormalizeUser([]byte(`[1]`)); err == nil {
		t.Fatalf("expected error for non-object")
	}
}

func TestNormalizePrimary(t *testing.T) {
	got := NormalizePrimary([]Address{{ID: "a"}, {ID: "b", IsPrimary: true}, {ID: "c", IsPrimary: true}})
	if !got[1].IsPrimary || got[0].IsPrimary || got[2].IsPrimary {
		t.Fatalf("first primary should win: %+v", got)
	}
	got = NormalizePrimary([]Address{{ID: "a"}, {ID: "b"}})
	if !got[0].IsPrimary || CountPrimary(got) != 1 {
		t.Fatalf("first entry should be promoted: %+v", got)
	}
	if len(NormalizePrimary(nil)) != 0 {
		t.Fatalf("empty list should stay empty")
	}
}

func TestParseLogin_NestedAndFlat(t *testing.T) {
	var nested map[string]json.RawMessage
	_ = json.Unmarshal([]byte(`{"token":"t1","user":{"id":3,"nome":"Dora","email":"d@x.com"}}`), &nested)
	res, err := parseLogin(nested)
	if err != nil {
		t.Fatalf("parseLogin nested: %v", err)
	}
	if res.Token != "t1" || res.User.ID != "3" || res.User.Name != "Dora" {
		t.Fatalf("nested result = %+v", res)
	}

	var flat map[string]json.RawMessage
	_ = json.Unmarshal([]byte(`{"accessToken":"t2","id":"4","name":"Eva","email":"e@x.com"}`), &flat)
	res, err = parseLogin(flat)
	if err != nil {
		t.Fatalf("parseLogin flat: %v", err)
	}
	if res.Token != "t2" || res.User.ID != "4" {
		t.Fatalf("flat result = %+v", res)
	}

	var missing map[string]json.RawMessage
	_ = json.Unmarshal([]byte(`{"user":{"id":1}}`), &missing)
	if _, err := parseLogin(missing); err == nil {
		t.Fatalf("expected error without token")
	}
}

func TestValidate(t *testing.T) {
	ok := Registration{Name: "Ana Lima", Email: "ana@x.com", CPF: "123.456.789-00", Password: "secret1"}
	if err := Validate(ok); err != nil {
		t.Fatalf("Validate valid registration: %v", err)
	}
	bad := ok
	bad.CPF = "12345678900"
	err := Validate(bad)
	if err == nil || !strings.Contains(err.Error(), "CPF") {
		t.Fatalf("expected CPF error, got %v", err)
	}

	vehicle := Product{Title: "Civic", Category: CategoryVehicle, UserID: "1"}
	if err := Validate(vehicle); err == nil || !strings.Contains(err.Error(), "Brand") {
		t.Fatalf("expected Brand error for vehicle, got %v", err)
	}
	vehicle.Brand = "Honda"
	if err := Validate(vehicle); err != nil {
		t.Fatalf("vehicle without condition should pass: %v", err)
	}
	if err := Validate(Product{Title: "Lamp", Category: "casa", UserID: "1"}); err == nil {
		t.Fatalf("expected Condition error for non-vehicle")
	}

	addr := Address{Label: "beach", Street: "Rua A", Number: "1", District: "Centro", City: "SP", State: "SP", Zip: "01000-000"}
	if err := Validate(addr); err == nil || !strings.Contains(err.Error(), "Label") {
		t.Fatalf("expected Label error, got %v", err)
	}
}
