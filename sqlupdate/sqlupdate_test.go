package sqlupdate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type user struct {
	Id   int
	Name string
	Age  int
}

type trackerFunc func(obj any) []string

func (f trackerFunc) Changes(obj any) []string { return f(obj) }

func TestBuildUpdateCommand_TrackedChange(t *testing.T) {
	obj := user{Id: 7, Name: "a", Age: 30}
	tracker := trackerFunc(func(any) []string { return []string{"Name"} })

	cmd, ok, err := BuildUpdateCommand(obj, "users", []string{"Id"}, nil, nil, tracker, nil)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, `UPDATE users SET "NAME"=@NAME WHERE "ID"=@ID`, cmd.Text)
	assert.Equal(t, "a", cmd.Params["NAME"])
	assert.Equal(t, 7, cmd.Params["ID"])
}

func TestBuildUpdateCommand_NoTrackedChanges(t *testing.T) {
	obj := user{Id: 7, Name: "a", Age: 30}
	tracker := trackerFunc(func(any) []string { return nil })

	cmd, ok, err := BuildUpdateCommand(obj, "users", []string{"Id"}, nil, nil, tracker, nil)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, cmd)
}

func TestBuildUpdateCommand_NoTrackerUsesIncludeFields(t *testing.T) {
	obj := user{Id: 7, Name: "a", Age: 30}

	cmd, ok, err := BuildUpdateCommand(obj, "users", []string{"Id"}, []string{"Age"}, nil, nil, nil)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, `UPDATE users SET "AGE"=@AGE WHERE "ID"=@ID`, cmd.Text)
	assert.Equal(t, 30, cmd.Params["AGE"])
}

func TestBuildUpdateCommand_ExcludeFieldsWins(t *testing.T) {
	obj := user{Id: 7, Name: "a", Age: 30}

	cmd, ok, err := BuildUpdateCommand(obj, "users", []string{"Id"}, nil, []string{"Age"}, nil, nil)
	require.NoError(t, err)
	require.True(t, ok)
	assert.NotContains(t, cmd.Text, "AGE")
	assert.Contains(t, cmd.Text, "NAME")
}
