package batch

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/tiffkit/internal/testutil"
	"github.com/MeKo-Tech/tiffkit/internal/utils"
)

const (
	tiffCompressionNone    = testutil.TIFFCompressionNone
	tiffCompressionLZW     = testutil.TIFFCompressionLZW
	tiffCompressionDeflate = testutil.TIFFCompressionDeflate
)

func TestCompress_TIFFUsesDeflate(t *testing.T) {
	dirs := testutil.CreateTempDirs(t, "in", "dest")
	src := testutil.WritePage(t, dirs[0], "photo.tiff")

	out, err := newTestOrchestrator(t, nil).Compress(context.Background(), []string{src}, dirs[1], "", false)
	require.NoError(t, err)

	want := filepath.Join(dirs[1], "photo.tiff")
	assert.Equal(t, ResultSuccess, out.ResultCode)
	assert.Equal(t, want, out.Files[0].Output)
	assert.EqualValues(t, tiffCompressionDeflate, tiffCompressionTag(t, want))
	assert.True(t, testutil.FileExists(src))
}

func TestCompress_Schemes(t *testing.T) {
	for scheme, tag := range map[utils.Compression]uint16{
		utils.CompressionLZW:     tiffCompressionLZW,
		utils.CompressionNone:    tiffCompressionNone,
		utils.CompressionDeflate: tiffCompressionDeflate,
	} {
		t.Run(string(scheme), func(t *testing.T) {
			dirs := testutil.CreateTempDirs(t, "in", "dest")
			src := testutil.WritePage(t, dirs[0], "scan.tif")

			out, err := newTestOrchestrator(t, nil).Compress(context.Background(), []string{src}, dirs[1], scheme, false)
			require.NoError(t, err)
			assert.Equal(t, ResultSuccess, out.ResultCode)
			assert.Equal(t, tag, tiffCompressionTag(t, filepath.Join(dirs[1], "scan.tif")))
		})
	}
}

func TestCompress_NonTIFFInputFailsAndIsKept(t *testing.T) {
	dirs := testutil.CreateTempDirs(t, "in", "dest")
	png := testutil.WritePage(t, dirs[0], "scan.png")
	tif := testutil.WritePage(t, dirs[0], "page.tiff")

	out, err := newTestOrchestrator(t, nil).Compress(context.Background(),
		[]string{png, tif}, dirs[1], utils.CompressionDeflate, true)
	require.NoError(t, err)

	assert.Equal(t, ResultPartialFailure, out.ResultCode)
	require.Len(t, out.Files, 2)
	assert.Equal(t, StatusFailed, out.Files[0].Status)
	assert.Contains(t, out.Files[0].Error, ErrNotTIFF.Error())
	assert.Equal(t, StatusOK, out.Files[1].Status)

	assert.True(t, testutil.FileExists(png), "non-TIFF source must survive delete-source")
	assert.False(t, testutil.FileExists(tif))
	assert.Equal(t, []string{tif}, out.Deleted)
	assert.Equal(t, []string{"page.tiff"}, testutil.ListFiles(t, dirs[1]))
}

func TestCompress_AllMissing(t *testing.T) {
	dest := testutil.CreateTempDir(t)

	out, err := newTestOrchestrator(t, nil).Compress(context.Background(),
		[]string{"/nope/a.tiff", "/nope/b.tiff"}, dest, utils.CompressionDeflate, false)
	require.NoError(t, err)

	assert.Equal(t, Descriptor{ResultCode: -1, InvalidFilePaths: "/nope/a.tiff,/nope/b.tiff"}, out.Descriptor())
	assert.Empty(t, testutil.ListFiles(t, dest))
}

// The deletion pass must remove exactly the path it just checked. Here b
// disappears between validation and deletion: a and c are removed, b is
// reported missing, and nothing else is touched.
func TestCompress_DeletionChecksAndRemovesSamePath(t *testing.T) {
	dirs := testutil.CreateTempDirs(t, "in", "dest")
	paths := testutil.WritePages(t, dirs[0], "a.tiff", "b.tiff", "c.tiff")
	a, b, c := paths[0], paths[1], paths[2]

	checker := newScriptedChecker(map[string]int{b: 1})
	remover := &recordingRemover{}
	o := newTestOrchestrator(t, nil, WithChecker(checker), WithRemover(remover))

	out, err := o.Compress(context.Background(), paths, dirs[1], utils.CompressionDeflate, true)
	require.NoError(t, err)

	assert.Equal(t, []string{a, c}, remover.removed)
	assert.Equal(t, []string{a, c}, out.Deleted)
	assert.Equal(t, []string{b}, out.MissingAtDeletion)
	assert.True(t, testutil.FileExists(b))
	assert.Equal(t, 2, checker.calls[a])
	assert.Equal(t, 2, checker.calls[c])
}

func TestCompress_InPlaceKeepsSource(t *testing.T) {
	dir := testutil.CreateTempDir(t)
	src := testutil.WritePage(t, dir, "scan.tiff")

	out, err := newTestOrchestrator(t, nil).Compress(context.Background(), []string{src}, dir, utils.CompressionLZW, true)
	require.NoError(t, err)

	assert.Equal(t, ResultSuccess, out.ResultCode)
	assert.True(t, testutil.FileExists(src))
	assert.Empty(t, out.Deleted)
	assert.EqualValues(t, tiffCompressionLZW, tiffCompressionTag(t, src))
	assert.Equal(t, []string{"scan.tiff"}, testutil.ListFiles(t, dir))
}

func TestCompress_DeletionFailureCollected(t *testing.T) {
	dirs := testutil.CreateTempDirs(t, "in", "dest")
	paths := testutil.WritePages(t, dirs[0], "a.tiff", "b.tiff")

	remover := &recordingRemover{fail: map[string]bool{paths[0]: true}}
	o := newTestOrchestrator(t, nil, WithRemover(remover))

	out, err := o.Compress(context.Background(), paths, dirs[1], utils.CompressionDeflate, true)
	require.NoError(t, err)

	require.Len(t, out.DeletionFailures, 1)
	assert.Equal(t, paths[0], out.DeletionFailures[0].Path)
	assert.Equal(t, []string{paths[1]}, out.Deleted)
	// Compression results stand even though a deletion failed.
	assert.Equal(t, ResultSuccess, out.ResultCode)
	assert.Len(t, testutil.ListFiles(t, dirs[1]), 2)
}
