package models

import "testing"

func TestAlertID_Normalization(t *testing.T) {
	cases := []struct {
		clientID string
		window   string
		want     string
	}{
		{"Cedente-42", "morning", "cedente-42_morning"},
		{"  Cedente-42  ", "afternoon", "cedente-42_afternoon"},
		{"Indústria São Paulo", "morning", "industria sao paulo_morning"},
	}
	for _, c := range cases {
		if got := AlertID(c.clientID, c.window); got != c.want {
			t.Errorf("AlertID(%q, %q) = %q, want %q", c.clientID, c.window, got, c.want)
		}
	}
}

func TestAlertID_SameClientDifferentSpelling(t *testing.T) {
	a := AlertID("Crédito Fácil", "morning")
	b := AlertID("credito facil", "morning")
	if a != b {
		t.Fatalf("spelling variants map to different alert ids: %q vs %q", a, b)
	}
}
