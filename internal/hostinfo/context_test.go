package hostinfo

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
)

func TestReadContext(t *testing.T) {
	tests := []struct {
		name string
		fsys fstest.MapFS
		want Context
	}{
		{
			name: "physical host without files",
			fsys: fstest.MapFS{},
			want: Context{},
		},
		{
			name: "nested inside a vm",
			fsys: fstest.MapFS{
				AbsoluteLevelFile: {Data: []byte("2\n")},
				VMNestedFile:      {Data: []byte("true\n")},
			},
			want: Context{NestingLevel: 2, VMNested: true, Known: true},
		},
		{
			name: "relaxed mode marker",
			fsys: fstest.MapFS{
				AbsoluteLevelFile: {Data: []byte("1")},
				VMNestedFile:      {Data: []byte("false")},
				RelaxedFile:       {Data: []byte{}},
			},
			want: Context{NestingLevel: 1, Relaxed: true, Known: true},
		},
		{
			name: "malformed level is ignored",
			fsys: fstest.MapFS{
				AbsoluteLevelFile: {Data: []byte("deep")},
			},
			want: Context{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ReadContext(tt.fsys))
		})
	}
}

func TestReadContextNilFS(t *testing.T) {
	assert.Equal(t, Context{}, ReadContext(nil))
}

func TestNamePrefix(t *testing.T) {
	assert.Equal(t, "", Context{}.NamePrefix())
	assert.Equal(t, "001-", Context{NestingLevel: 1}.NamePrefix())
	assert.Equal(t, "012-", Context{NestingLevel: 12}.NamePrefix())
}
