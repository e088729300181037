package commands

import (
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const discussionID = "0b9a3f63-8c1e-4b4e-9f43-9d1a2c8f6e10"

func TestInspect(t *testing.T) {
	stdout, _, err := runCommand(t, "inspect")
	require.NoError(t, err)

	assert.Contains(t, stdout, "Forum (prefix pfx)")
	assert.Equal(t, []string{"Announcement", "pfx:annt", "string", "*keyspace.String[string]"}, rowFields(stdout, "Announcement"))
	assert.Equal(t, []string{"Leaderboard", "pfx:lb", "zset", "*keyspace.SortedSet[string]"}, rowFields(stdout, "Leaderboard"))
	assert.Equal(t, []string{"Discussions", "pfx:dscs", "entry-set", "uuid.UUID", "→", "*forum.Discussion"}, rowFields(stdout, "Discussions"))
	assert.Equal(t, []string{"Discussions[ID].Comments[ID]", "pfx:dscs:{ID}:cmts:{ID}", "string", "*forum.Comment"},
		rowFields(stdout, "Discussions[ID].Comments[ID]"))
}

func TestInspect_Subtree(t *testing.T) {
	stdout, _, err := runCommand(t, "inspect", "Forum.Discussions[ID]")
	require.NoError(t, err)

	assert.NotNil(t, rowFields(stdout, "Discussions[ID]"))
	assert.NotNil(t, rowFields(stdout, "Discussions[ID].Title"))
	assert.NotNil(t, rowFields(stdout, "Discussions[ID].Comments"))
	assert.Nil(t, rowFields(stdout, "Announcement"))
	assert.Nil(t, rowFields(stdout, "Discussions"))
}

func TestInspect_JSON(t *testing.T) {
	stdout, _, err := runCommand(t, "inspect", "--json")
	require.NoError(t, err)

	var views []entryView
	require.NoError(t, json.Unmarshal([]byte(stdout), &views))
	require.Len(t, views, 9)
	assert.Equal(t, entryView{Path: "Announcement", Key: "pfx:annt", Kind: "string", Type: "*keyspace.String[string]"}, views[0])
	assert.Equal(t, "Discussions[ID].Tags", views[6].Path)
	assert.Equal(t, "set", views[6].Kind)
}

func TestInspect_UnknownPath(t *testing.T) {
	_, stderr, err := runCommand(t, "inspect", "Discusions")
	require.Error(t, err)

	assert.Contains(t, stderr, "ENTRY NOT FOUND")
	assert.Contains(t, stderr, "Did you mean: Discussions?")
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"static", []string{"Announcement"}, "pfx:annt\n"},
		{"entry-set", []string{"Discussions"}, "pfx:dscs\n"},
		{"item", []string{"Discussions[ID]", discussionID}, "pfx:dscs:" + discussionID + "\n"},
		{"nested", []string{"Discussions[ID].Comments[ID]", discussionID, "12"}, "pfx:dscs:" + discussionID + ":cmts:12\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stdout, _, err := runCommand(t, append([]string{"resolve"}, tt.args...)...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, stdout)
		})
	}
}

func TestResolve_IdentifierErrors(t *testing.T) {
	_, _, err := runCommand(t, "resolve", "Discussions[ID].Title")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "needs 1 identifier(s) (Discussions.ID), got 0")

	_, _, err = runCommand(t, "resolve", "Discussions[ID].Comments[ID]", discussionID, "twelve")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `identifier "twelve" of Comments is not a valid int64`)
}

func TestMatch(t *testing.T) {
	key := "pfx:dscs:" + discussionID + ":cmts:12"

	stdout, _, err := runCommand(t, "match", key)
	require.NoError(t, err)
	assert.Equal(t, []string{"Entry:", "Discussions[ID].Comments[ID]"}, rowFields(stdout, "Entry:"))
	assert.Equal(t, []string{"Template:", "pfx:dscs:{ID}:cmts:{ID}"}, rowFields(stdout, "Template:"))
	assert.Equal(t, []string{"Discussions.ID:", discussionID}, rowFields(stdout, "Discussions.ID:"))
	assert.Equal(t, []string{"Comments.ID:", "12"}, rowFields(stdout, "Comments.ID:"))

	stdout, _, err = runCommand(t, "match", key, "--json")
	require.NoError(t, err)
	var v entryView
	require.NoError(t, json.Unmarshal([]byte(stdout), &v))
	assert.Equal(t, key, v.Key)
	assert.Equal(t, map[string]string{"Discussions.ID": discussionID, "Comments.ID": "12"}, v.Identifiers)
}

func TestMatch_Errors(t *testing.T) {
	_, stderr, err := runCommand(t, "match", "other:key")
	require.Error(t, err)
	assert.Contains(t, stderr, "KEY NOT MATCHED")

	_, _, err = runCommand(t, "match", "pfx:dscs:not-a-uuid")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a valid uuid.UUID")
}
