package registry_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/hbomb79/Sectrans/internal/http/registry"
	"github.com/hbomb79/Sectrans/internal/video"
	"github.com/hbomb79/Sectrans/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatch_ExactNames(t *testing.T) {
	rec := logger.NewRecorder()
	cars := []registry.Car{{ID: "7", Name: "ABC1234"}, {ID: "8", Name: "XYZ9876"}}

	tasks, err := registry.Match([]string{"XYZ9876", "ABC1234"}, cars, rec)
	require.NoError(t, err)
	assert.Equal(t, []registry.CarTask{
		{LocalName: "XYZ9876", RemoteID: "8"},
		{LocalName: "ABC1234", RemoteID: "7"},
	}, tasks)
	assert.Zero(t, rec.Count(logger.WARNING))
}

func TestMatch_CaseSensitiveAndUnmatched(t *testing.T) {
	rec := logger.NewRecorder()
	cars := []registry.Car{{ID: "7", Name: "ABC1234"}}

	tasks, err := registry.Match([]string{"abc1234", "ghost"}, cars, rec)
	require.NoError(t, err)
	assert.Empty(t, tasks)
	assert.Equal(t, 2, rec.Count(logger.WARNING))

	entries := rec.Entries()
	require.NotEmpty(t, entries)
	assert.Contains(t, entries[0].Message, `"ABC1234"`, "closest registry name should be suggested")
}

func TestMatch_DuplicateRemoteNames(t *testing.T) {
	rec := logger.NewRecorder()
	cars := []registry.Car{
		{ID: "7", Name: "ABC1234"},
		{ID: "9", Name: "ABC1234"},
		{ID: "8", Name: "XYZ9876"},
	}

	tasks, err := registry.Match([]string{"ABC1234", "XYZ9876"}, cars, rec)
	require.Error(t, err)

	var ambiguous *registry.AmbiguousNameError
	require.True(t, errors.As(err, &ambiguous))
	assert.Equal(t, map[string][]string{"ABC1234": {"7", "9"}}, ambiguous.Duplicates)

	assert.Equal(t, []registry.CarTask{
		{LocalName: "ABC1234", RemoteID: "7"},
		{LocalName: "XYZ9876", RemoteID: "8"},
	}, tasks, "first listed car should win")
	assert.Equal(t, 1, rec.Count(logger.ERROR))
}

func TestMatch_Empty(t *testing.T) {
	tasks, err := registry.Match(nil, nil, logger.NewRecorder())
	assert.NoError(t, err)
	assert.NotNil(t, tasks)
	assert.Empty(t, tasks)
}

func TestFormatPayload(t *testing.T) {
	out, err := json.Marshal(registry.FormatPayload("7", "2", "3", nil))
	require.NoError(t, err)
	assert.JSONEq(t, `{"carro":7,"empresa":2,"servidor":3,"videos":[]}`, string(out))

	videos := []video.Record{{FileName: "a.mp4"}, {FileName: "b.mp4"}}
	payload := registry.FormatPayload("7", "2", "3", videos)
	assert.Equal(t, videos, payload.Videos)
}
