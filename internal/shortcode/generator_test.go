package shortcode

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerator_Generate(t *testing.T) {
	generator := NewGenerator(6, 5)

	code, err := generator.Generate(context.Background(), func(ctx context.Context, c string) (bool, error) {
		return false, nil
	})
	require.NoError(t, err)
	assert.Len(t, code, 6)
	for _, ch := range code {
		assert.True(t, strings.ContainsRune(Charset, ch), "短码包含字母表之外的字符: %c", ch)
	}
}

func TestGenerator_RetriesOnCollision(t *testing.T) {
	generator := NewGenerator(6, 5)

	// 前两次撞车，第三次通过
	attempts := 0
	code, err := generator.Generate(context.Background(), func(ctx context.Context, c string) (bool, error) {
		attempts++
		return attempts <= 2, nil
	})
	require.NoError(t, err)
	assert.NotEmpty(t, code)
	assert.Equal(t, 3, attempts)
}

func TestGenerator_Exhausted(t *testing.T) {
	generator := NewGenerator(6, 5)

	// 永远撞车：恰好尝试 maxRetries 次后报 ErrExhausted
	attempts := 0
	_, err := generator.Generate(context.Background(), func(ctx context.Context, c string) (bool, error) {
		attempts++
		return true, nil
	})
	assert.ErrorIs(t, err, ErrExhausted)
	assert.Equal(t, 5, attempts)
}

func TestGenerator_Defaults(t *testing.T) {
	generator := NewGenerator(0, 0)

	code, err := generator.Generate(context.Background(), func(ctx context.Context, c string) (bool, error) {
		return false, nil
	})
	require.NoError(t, err)
	assert.Len(t, code, DefaultLength)
}

func TestNormalizeAlias(t *testing.T) {
	cases := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"规整大小写与空白", "  My-Alias ", "my-alias", false},
		{"下划线合法", "my_alias", "my_alias", false},
		{"太短", "ab", "", true},
		{"非法字符", "my alias", "", true},
		{"特殊符号", "a!b", "", true},
		{"空串", "", "", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := NormalizeAlias(tc.input)
			if tc.wantErr {
				assert.ErrorIs(t, err, ErrInvalidAlias)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}
