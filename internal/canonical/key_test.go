package canonical

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKey(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Бетон В25", "beton_v25"},
		{"Бетон В25 (или аналог)", "beton_v25"},
		{"Кирпич «Браер» М150", "kirpich_braer_m150"},
		{"Труба стальная", "truba_stalnaya"},
		{"Щебень фракции 5-20", "shcheben_fraktsii_5_20"},
		{"Ёж строительный", "yozh_stroitelnyy"},
		{"Гидроизоляция Технониколь или аналог", "gidroizolyatsiya_tekhnonikol"},
		{"  Цемент М500  ", "tsement_m500"},
		{"Sheet steel 2mm", "sheet_steel_2mm"},
		{"", ""},
		{"---", ""},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Key(tc.in), "Key(%q)", tc.in)
	}
}

func TestKeyIdempotent(t *testing.T) {
	inputs := []string{
		"Бетон В25 (или аналог)",
		"Кирпич «Браер» М150",
		"Щебень фракции 5-20",
		"already_a_slug",
		"Mixed Кириллица text 42",
	}
	for _, in := range inputs {
		once := Key(in)
		assert.Equal(t, once, Key(once), "Key must be idempotent for %q", in)
	}
}
