package export

import (
	"encoding/json"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/filmoteca/chartfetch/internal/chart"
)

func sampleMovies() []chart.Movie {
	return []chart.Movie{
		{
			Rank:        1,
			URL:         "https://www.imdb.com/es-es/title/tt0111161/?pf_rd_m=A2FGELUUNOQJNL&ref_=chttp_i_1",
			Name:        "Cadena perpetua",
			RatingValue: json.Number("9.3"),
		},
		{
			Rank:        2,
			URL:         "https://www.imdb.com/es-es/title/tt0068646/",
			Name:        "El padrino",
			RatingValue: json.Number("9.2"),
		},
	}
}

func TestWriteAttachment(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	require.NoError(t, WriteAttachment(rec, sampleMovies()))

	require.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))
	require.Equal(t, "attachment; filename=imdb_top250.json", rec.Header().Get("Content-Disposition"))

	var decoded []chart.Movie
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded))
	require.Len(t, decoded, 2)
	require.Equal(t, "Cadena perpetua", decoded[0].Name)
	// HTML escaping stays off; title URLs keep their raw query strings.
	require.Contains(t, rec.Body.String(), "?pf_rd_m=A2FGELUUNOQJNL&ref_=chttp_i_1")
	require.NotContains(t, rec.Body.String(), `&`)
}

func TestWriteAttachmentEmpty(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	require.NoError(t, WriteAttachment(rec, nil))
	require.JSONEq(t, "[]", rec.Body.String())
}

func TestWriteFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "feeds", "top250.json")
	require.NoError(t, WriteFile(path, sampleMovies(), false))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var decoded []chart.Movie
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Len(t, decoded, 2)
	require.Equal(t, 1, decoded[0].Rank)
	require.Contains(t, string(data), "\n  {")
}

func TestWriteFileRefusesOverwrite(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "top250.json")
	require.NoError(t, WriteFile(path, sampleMovies(), false))

	err := WriteFile(path, sampleMovies()[:1], false)
	require.ErrorContains(t, err, "refusing to overwrite")

	require.NoError(t, WriteFile(path, sampleMovies()[:1], true))
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var decoded []chart.Movie
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Len(t, decoded, 1)
}

func TestWriteFileNilMovies(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "empty.json")
	require.NoError(t, WriteFile(path, nil, false))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.JSONEq(t, "[]", string(data))
}
