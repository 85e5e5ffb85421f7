package domain_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/sufield/entryadmin/internal/core/domain"
	coreerrors "github.com/sufield/entryadmin/internal/core/errors"
)

func TestParseSelector(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantType  string
		wantValue string
		wantErr   bool
	}{
		{name: "unix uid keeps inner colon", input: "unix:uid:1001", wantType: "unix", wantValue: "uid:1001"},
		{name: "k8s multi colon", input: "k8s:pod-label:app:web", wantType: "k8s", wantValue: "pod-label:app:web"},
		{name: "simple pair", input: "docker:image", wantType: "docker", wantValue: "image"},
		{name: "no colon", input: "unix", wantErr: true},
		{name: "empty", input: "", wantErr: true},
		{name: "empty type", input: ":uid:1001", wantErr: true},
		{name: "empty value", input: "unix:", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sel, err := domain.ParseSelector(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, coreerrors.ErrMalformedSelector)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantType, sel.Type())
			assert.Equal(t, tt.wantValue, sel.Value())
			assert.Equal(t, tt.input, sel.String())
		})
	}
}

func TestParseSelector_FirstColonProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		typ := rapid.StringMatching(`[a-z0-9_-]{1,10}`).Draw(t, "type")
		value := rapid.StringMatching(`[a-zA-Z0-9:/._-]{1,30}`).Draw(t, "value")

		sel, err := domain.ParseSelector(typ + ":" + value)
		if err != nil {
			t.Fatalf("ParseSelector(%q) unexpected error: %v", typ+":"+value, err)
		}
		if sel.Type() != typ || sel.Value() != value {
			t.Fatalf("got (%q, %q), want (%q, %q)", sel.Type(), sel.Value(), typ, value)
		}
	})
}

func TestParseSelector_NoColonProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		s := rapid.StringMatching(`[a-zA-Z0-9/._-]{0,30}`).Draw(t, "selector")
		_, err := domain.ParseSelector(s)
		if !errors.Is(err, coreerrors.ErrMalformedSelector) {
			t.Fatalf("ParseSelector(%q) = %v, want ErrMalformedSelector", s, err)
		}
	})
}

func TestNewSelector(t *testing.T) {
	sel, err := domain.NewSelector("unix", "uid:1001")
	require.NoError(t, err)
	assert.Equal(t, "unix:uid:1001", sel.String())

	_, err = domain.NewSelector("", "uid:1001")
	assert.ErrorIs(t, err, coreerrors.ErrMalformedSelector)
}
