package video_test

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/hbomb79/Sectrans/internal/ffmpeg"
	"github.com/hbomb79/Sectrans/internal/video"
	"github.com/hbomb79/Sectrans/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockProber struct {
	mock.Mock
}

func (m *mockProber) Probe(_ context.Context, path string) (float64, error) {
	args := m.Called(path)
	return args.Get(0).(float64), args.Error(1)
}

func writeSized(t *testing.T, path string, size int) string {
	require.NoError(t, os.MkdirAll(filepath.Dir(path), os.ModePerm))
	require.NoError(t, os.WriteFile(path, make([]byte, size), 0o644))
	abs, err := filepath.Abs(path)
	require.NoError(t, err)
	return abs
}

func Test_Build_Record(t *testing.T) {
	root := t.TempDir()
	path := writeSized(t, filepath.Join(root, "car1", "camera3", "20240101", "202401010900_clip.mp4"), 2048)

	prober := &mockProber{}
	prober.On("Probe", path).Return(125.7, nil).Once()
	rec := logger.NewRecorder()

	record, err := video.NewBuilder(prober).WithLogger(rec).Build(context.Background(), path, "camera3")
	require.NoError(t, err)
	require.NotNil(t, record)

	assert.Equal(t, video.Record{
		FileName:      "202401010900_clip.mp4",
		Channel:       3,
		Date:          "2024-01-01",
		Time:          "09:00:00",
		SizeKb:        2.0,
		Duration:      125,
		DirectoryPath: filepath.Join(root, "car1", "camera3", "20240101"),
	}, *record)

	encoded, err := json.Marshal(record)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"video_file": "202401010900_clip.mp4",
		"channel": 3,
		"data_video": "2024-01-01",
		"hora_video": "09:00:00",
		"tamanho": 2.0,
		"duracao": "125",
		"path_arquivo": "`+filepath.Join(root, "car1", "camera3", "20240101")+`"
	}`, string(encoded))
	assert.Empty(t, rec.Entries())
}

func Test_Build_ProbeFailureDegradesToZero(t *testing.T) {
	path := writeSized(t, filepath.Join(t.TempDir(), "cam2", "d", "202401011200.mp4"), 10)

	tests := []struct {
		summary string
		err     error
		status  logger.LogStatus
	}{
		{"corrupt media", &ffmpeg.ProbeError{Path: path, Type: ffmpeg.CorruptMedia, Err: errors.New("Invalid data")}, logger.WARNING},
		{"tool failure", &ffmpeg.ProbeError{Path: path, Type: ffmpeg.ToolFailure, Err: errors.New("no ffprobe")}, logger.ERROR},
	}

	for _, tt := range tests {
		t.Run(tt.summary, func(t *testing.T) {
			prober := &mockProber{}
			prober.On("Probe", path).Return(0.0, tt.err)
			rec := logger.NewRecorder()

			record, err := video.NewBuilder(prober).WithLogger(rec).Build(context.Background(), path, "cam2")
			require.NoError(t, err)
			require.NotNil(t, record)
			assert.True(t, record.ProbeFailed)
			assert.Equal(t, 0, record.Duration)
			assert.Equal(t, 1, rec.Count(tt.status))
		})
	}
}

func Test_Build_GenuineZeroDurationIsNotAFailure(t *testing.T) {
	path := writeSized(t, filepath.Join(t.TempDir(), "cam2", "d", "202401011200.mp4"), 0)
	prober := &mockProber{}
	prober.On("Probe", path).Return(0.4, nil)

	record, err := video.NewBuilder(prober).WithLogger(logger.NewRecorder()).Build(context.Background(), path, "cam2")
	require.NoError(t, err)
	assert.Equal(t, 0, record.Duration)
	assert.False(t, record.ProbeFailed)
}

func Test_Build_SkipsOnParseOrStatFailure(t *testing.T) {
	dir := t.TempDir()
	badName := writeSized(t, filepath.Join(dir, "cam1", "d", "clip.mp4"), 1)
	goodName := writeSized(t, filepath.Join(dir, "camX", "d", "202401010900.mp4"), 1)

	prober := &mockProber{}
	builder := video.NewBuilder(prober).WithLogger(logger.NewRecorder())

	record, err := builder.Build(context.Background(), badName, "cam1")
	assert.Nil(t, record)
	var parseErr *video.ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, video.BadDate, parseErr.Type)

	record, err = builder.Build(context.Background(), goodName, "camX")
	assert.Nil(t, record)
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, video.BadChannel, parseErr.Type)

	record, err = builder.Build(context.Background(), filepath.Join(dir, "missing", "202401010900.mp4"), "cam1")
	assert.Nil(t, record)
	var accessErr *video.FileAccessError
	require.ErrorAs(t, err, &accessErr)

	record, err = builder.Build(context.Background(), dir, "cam1")
	assert.Nil(t, record)
	require.ErrorAs(t, err, &accessErr, "directories are not recordings")

	prober.AssertNotCalled(t, "Probe", mock.Anything)
}

func Test_Build_CancelledProbeDropsRecord(t *testing.T) {
	path := writeSized(t, filepath.Join(t.TempDir(), "cam1", "d", "202401010900.mp4"), 1)
	prober := &mockProber{}
	prober.On("Probe", path).Return(0.0, context.Canceled)

	record, err := video.NewBuilder(prober).WithLogger(logger.NewRecorder()).Build(context.Background(), path, "cam1")
	assert.Nil(t, record)
	assert.ErrorIs(t, err, context.Canceled)
}

func Test_Record_RoundTripsDurationAsString(t *testing.T) {
	var decoded video.Record
	require.NoError(t, json.Unmarshal([]byte(`{"video_file":"a","channel":1,"duracao":"17","tamanho":1.5}`), &decoded))
	assert.Equal(t, 17, decoded.Duration)
	assert.Equal(t, 1.5, decoded.SizeKb)

	assert.Error(t, json.Unmarshal([]byte(`{"duracao":"x"}`), &decoded))
}
