package entity

import (
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_SortsLongestFirst(t *testing.T) {
	d := New([]string{"Jane", "Jane Doe", "Ann Li", "Bob"})

	assert.Equal(t, []string{"Jane Doe", "Ann Li", "Jane", "Bob"}, d.DisplayNames())
}

func TestNew_DropsBlankAndDuplicates(t *testing.T) {
	d := New([]string{"Jane Doe", "  ", "jane  doe", "JANE DOE", ""})

	require.Equal(t, 1, d.Len())
	assert.Equal(t, []string{"jane doe"}, d.Entries()[0].Forms)
}

func TestNewWithAliases(t *testing.T) {
	d := NewWithAliases(map[string][]string{
		"Yua Mikami": {"三上悠亜", "Mikami Yua", "三上悠亜"},
	})

	require.Equal(t, 1, d.Len())
	e := d.Entries()[0]
	assert.Equal(t, "Yua Mikami", e.DisplayName)
	assert.Equal(t, []string{"yua mikami", "mikami yua", "三上悠亜"}, e.Forms)
	assert.True(t, e.MultiWord())
}

func TestFold(t *testing.T) {
	assert.Equal(t, "jane doe", Fold("  JANE\tDoe "))
	assert.Equal(t, "abc", Fold("ＡＢＣ"))
	assert.Equal(t, "ア", Fold("ｱ"))
}

func TestNilDictionary(t *testing.T) {
	var d *Dictionary
	assert.Equal(t, 0, d.Len())
	assert.Empty(t, d.Entries())
}

func TestLoadError(t *testing.T) {
	err := &LoadError{Source: "names.json", Err: os.ErrNotExist}

	assert.True(t, errors.Is(err, os.ErrNotExist))
	assert.Contains(t, err.Error(), "names.json")
}
