package slug

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerate(t *testing.T) {
	cases := map[string]string{
		"Kind of Blue":                 "kind-of-blue",
		"OK Computer":                  "ok-computer",
		"Sigur Rós":                    "sigur-ros",
		"Motörhead":                    "motorhead",
		"Ænima":                        "aenima",
		"Mañana":                       "manana",
		"Simon & Garfunkel":            "simon-and-garfunkel",
		"AC/DC":                        "ac-dc",
		"What's Going On???":           "what-s-going-on",
		"  --leading and trailing--  ": "leading-and-trailing",
		"":                             "",
		"!!!":                          "",
	}
	for in, want := range cases {
		assert.Equal(t, want, Generate(in), "Generate(%q)", in)
	}
}

func TestHandle(t *testing.T) {
	cases := map[string]string{
		"Ada Lovelace":  "ada_lovelace",
		"  Zoë  ":       "zoe",
		"dj-shadow":     "dj_shadow",
		"R.E.M. Fan":    "r_e_m_fan",
		"Björn Ulvaeus": "bjorn_ulvaeus",
	}
	for in, want := range cases {
		assert.Equal(t, want, Handle(in), "Handle(%q)", in)
	}
}

func TestGenerateIsStable(t *testing.T) {
	once := Generate("Ágætis byrjun")
	assert.Equal(t, "agaetis-byrjun", once)
	assert.Equal(t, once, Generate(once))
}
