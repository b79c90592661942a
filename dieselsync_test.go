package dieselsync

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bfv/dieselsync/config"
)

const blog = `
diesel::table! {
    posts (id) {
        id -> Int4,
        title -> Text,
        created_at -> Timestamptz,
    }
}

diesel::table! {
    audit_log (id) {
        id -> Int8,
        entry -> Text,
    }
}
`

func TestGenerateCode(t *testing.T) {
	cfg := config.Default()
	cfg.Defaults = config.TableOptions{}.WithAutogeneratedColumns("created_at")
	cfg.Tables["audit_log"] = config.TableOptions{}.WithIgnore(true)

	tables, err := GenerateCode(blog, cfg)
	require.NoError(t, err)
	require.Len(t, tables, 1)

	posts := tables[0]
	assert.Equal(t, "posts", posts.Table.Name)
	assert.True(t, strings.HasPrefix(posts.Code, FileSignature))
	assert.Contains(t, posts.Code, "pub struct CreatePost {\n    pub title: String,\n}\n")
}

func TestGenerateFiles(t *testing.T) {
	dir := t.TempDir()
	schemaPath := filepath.Join(dir, "schema.rs")
	require.NoError(t, os.WriteFile(schemaPath, []byte(blog), 0o644))
	out := filepath.Join(dir, "models")

	report, err := GenerateFiles(schemaPath, out, config.Default())
	require.NoError(t, err)
	assert.Equal(t, []string{"posts", "audit_log"}, report.Generated)

	root, err := os.ReadFile(filepath.Join(out, "mod.rs"))
	require.NoError(t, err)
	assert.Equal(t, "pub mod posts;\npub mod audit_log;\n", string(root))
}
