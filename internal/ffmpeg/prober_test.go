package ffmpeg_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/hbomb79/Sectrans/internal/ffmpeg"
	"github.com/hbomb79/Sectrans/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockReader struct {
	mock.Mock
}

func (m *mockReader) ReadDuration(_ context.Context, path string) (string, error) {
	args := m.Called(path)
	return args.String(0), args.Error(1)
}

func touch(t *testing.T, path string) string {
	require.NoError(t, os.MkdirAll(filepath.Dir(path), os.ModePerm))
	require.NoError(t, os.WriteFile(path, []byte("not really a video"), 0o644))
	resolved, err := ffmpeg.CanonicalPath(path)
	require.NoError(t, err)
	return resolved
}

func Test_Probe_CachesByCanonicalPath(t *testing.T) {
	dir := t.TempDir()
	resolved := touch(t, filepath.Join(dir, "cam1", "clip.mp4"))

	reader := &mockReader{}
	reader.On("ReadDuration", resolved).Return("125.700000", nil).Once()
	prober := ffmpeg.NewProberWithReader(reader, logger.NewRecorder())

	d, err := prober.Probe(context.Background(), filepath.Join(dir, "cam1", "clip.mp4"))
	require.NoError(t, err)
	assert.InDelta(t, 125.7, d, 0.0001)

	// A different route to the same file must hit the cache.
	d, err = prober.Probe(context.Background(), filepath.Join(dir, "cam1", "..", "cam1", ".", "clip.mp4"))
	require.NoError(t, err)
	assert.InDelta(t, 125.7, d, 0.0001)

	reader.AssertNumberOfCalls(t, "ReadDuration", 1)
	assert.Equal(t, 1, prober.CachedEntries())
}

func Test_Probe_SymlinkSharesEntry(t *testing.T) {
	dir := t.TempDir()
	resolved := touch(t, filepath.Join(dir, "real", "clip.mp4"))
	link := filepath.Join(dir, "link.mp4")
	if err := os.Symlink(resolved, link); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}

	reader := &mockReader{}
	reader.On("ReadDuration", resolved).Return("10", nil).Once()
	prober := ffmpeg.NewProberWithReader(reader, logger.NewRecorder())

	for _, p := range []string{link, resolved} {
		d, err := prober.Probe(context.Background(), p)
		require.NoError(t, err)
		assert.Equal(t, 10.0, d)
	}
	reader.AssertNumberOfCalls(t, "ReadDuration", 1)
}

func Test_Probe_FailuresAreTyped(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		summary  string
		raw      string
		err      error
		expected ffmpeg.ProbeErrorType
	}{
		{"reader corrupt media", "", &ffmpeg.ProbeError{Type: ffmpeg.CorruptMedia, Err: errors.New("Invalid data")}, ffmpeg.CorruptMedia},
		{"reader tool failure", "", &ffmpeg.ProbeError{Type: ffmpeg.ToolFailure, Err: errors.New("not found")}, ffmpeg.ToolFailure},
		{"untyped reader error", "", errors.New("weird"), ffmpeg.CorruptMedia},
		{"missing duration", "N/A", nil, ffmpeg.CorruptMedia},
		{"garbage duration", "abc", nil, ffmpeg.CorruptMedia},
		{"negative duration", "-3", nil, ffmpeg.CorruptMedia},
	}

	for i, tt := range tests {
		t.Run(tt.summary, func(t *testing.T) {
			resolved := touch(t, filepath.Join(dir, "case", string(rune('a'+i))+".mp4"))
			reader := &mockReader{}
			reader.On("ReadDuration", resolved).Return(tt.raw, tt.err)
			prober := ffmpeg.NewProberWithReader(reader, logger.NewRecorder())

			_, err := prober.Probe(context.Background(), resolved)
			var probeErr *ffmpeg.ProbeError
			require.ErrorAs(t, err, &probeErr)
			assert.Equal(t, tt.expected, probeErr.Type)
			assert.Equal(t, 0, prober.CachedEntries(), "failures must not be cached")
		})
	}
}

func Test_Probe_MissingFile(t *testing.T) {
	reader := &mockReader{}
	prober := ffmpeg.NewProberWithReader(reader, logger.NewRecorder())

	_, err := prober.Probe(context.Background(), filepath.Join(t.TempDir(), "nope.mp4"))
	var probeErr *ffmpeg.ProbeError
	require.ErrorAs(t, err, &probeErr)
	assert.Equal(t, ffmpeg.CorruptMedia, probeErr.Type)
	reader.AssertNotCalled(t, "ReadDuration", mock.Anything)
}

func Test_Probe_CancelledContext(t *testing.T) {
	resolved := touch(t, filepath.Join(t.TempDir(), "clip.mp4"))
	reader := &mockReader{}
	prober := ffmpeg.NewProberWithReader(reader, logger.NewRecorder())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := prober.Probe(ctx, resolved)
	assert.ErrorIs(t, err, context.Canceled)
	reader.AssertNotCalled(t, "ReadDuration", mock.Anything)
}

func Test_Probe_ConcurrentCallersShareCache(t *testing.T) {
	resolved := touch(t, filepath.Join(t.TempDir(), "clip.mp4"))
	reader := &mockReader{}
	reader.On("ReadDuration", resolved).Return("42.9", nil)
	prober := ffmpeg.NewProberWithReader(reader, logger.NewRecorder())

	wg := sync.WaitGroup{}
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d, err := prober.Probe(context.Background(), resolved)
			assert.NoError(t, err)
			assert.InDelta(t, 42.9, d, 0.0001)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, prober.CachedEntries())
}

func Test_FfprobeReader_MissingBinary(t *testing.T) {
	reader := ffmpeg.NewFfprobeReader(ffmpeg.Config{FfprobeBinaryPath: filepath.Join(t.TempDir(), "no-ffprobe")})
	_, err := reader.ReadDuration(context.Background(), "whatever.mp4")

	var probeErr *ffmpeg.ProbeError
	require.ErrorAs(t, err, &probeErr)
	assert.Equal(t, ffmpeg.ToolFailure, probeErr.Type)
}

func Test_FfprobeReader_ResolvesBinaryOnce(t *testing.T) {
	binPath := filepath.Join(t.TempDir(), "ffprobe")
	reader := ffmpeg.NewFfprobeReader(ffmpeg.Config{FfprobeBinaryPath: binPath})

	// The binary appearing after construction is not picked up.
	require.NoError(t, os.WriteFile(binPath, []byte("#!/bin/sh\nexit 0\n"), 0o755))

	for i := 0; i < 2; i++ {
		_, err := reader.ReadDuration(context.Background(), "whatever.mp4")

		var probeErr *ffmpeg.ProbeError
		require.ErrorAs(t, err, &probeErr)
		assert.Equal(t, ffmpeg.ToolFailure, probeErr.Type)
		assert.ErrorIs(t, err, os.ErrNotExist)
	}
}

func Test_FfprobeReader_CancelledBeforeSpawn(t *testing.T) {
	binPath := filepath.Join(t.TempDir(), "ffprobe")
	require.NoError(t, os.WriteFile(binPath, []byte("#!/bin/sh\nexit 1\n"), 0o755))
	reader := ffmpeg.NewFfprobeReader(ffmpeg.Config{FfprobeBinaryPath: binPath})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := reader.ReadDuration(ctx, "whatever.mp4")
	assert.ErrorIs(t, err, context.Canceled)
}
