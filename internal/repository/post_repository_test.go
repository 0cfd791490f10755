package repository

import (
	"testing"
)

func TestTextArray(t *testing.T) {
	t.Run("nil slice becomes an empty array, not NULL", func(t *testing.T) {
		v, err := textArray(nil).Value()
		if err != nil {
			t.Fatalf("Value: %v", err)
		}
		if v == nil {
			t.Fatal("nil slice rendered as SQL NULL")
		}
		if s, ok := v.(string); !ok || s != "{}" {
			t.Errorf("value = %v (%T)", v, v)
		}
	})

	t.Run("elements pass through", func(t *testing.T) {
		v, err := textArray([]string{"linkedin", "facebook"}).Value()
		if err != nil {
			t.Fatalf("Value: %v", err)
		}
		if s, ok := v.(string); !ok || s != `{"linkedin","facebook"}` {
			t.Errorf("value = %v (%T)", v, v)
		}
	})

	t.Run("empty slice stays empty", func(t *testing.T) {
		v, err := textArray([]string{}).Value()
		if err != nil {
			t.Fatalf("Value: %v", err)
		}
		if s, ok := v.(string); !ok || s != "{}" {
			t.Errorf("value = %v (%T)", v, v)
		}
	})
}
