package edm

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/detsim/detsim/sim"
)

func TestExportLoad_RoundTrip_PreservesHitsAndMetadata(t *testing.T) {
	// GIVEN a collection with a full-width cell id and metadata
	c := sim.NewCollection("ECalBarrelCells", 2)
	c.Append(sim.Hit{CellID: ^uint64(0), Energy: 0.125, EnergyError: 0.01, Time: 3.5,
		Position: r3.Vec{X: 1, Y: -2.25, Z: 1e4}, Type: 2})
	c.Append(sim.Hit{CellID: 42, Energy: 1.5})
	c.SetMetadata(sim.CellIDEncodingKey, "system:0:4,layer:4:8")

	dir := t.TempDir()
	headerPath := filepath.Join(dir, "hits.yaml")
	dataPath := filepath.Join(dir, "hits.csv")

	// WHEN exported and loaded back
	require.NoError(t, Export(c, headerPath, dataPath))
	loaded, err := Load(headerPath, dataPath)
	require.NoError(t, err)

	// THEN every attribute survives
	assert.Equal(t, c.Name, loaded.Name)
	assert.Equal(t, c.Hits, loaded.Hits)
	enc, ok := loaded.CellIDEncoding()
	require.True(t, ok)
	assert.Equal(t, "system:0:4,layer:4:8", enc)
}

func TestNewHeader_StampsRunID(t *testing.T) {
	h := NewHeader(sim.NewCollection("c", 0))
	_, err := uuid.Parse(h.RunID)
	assert.NoError(t, err)
	assert.Equal(t, FormatVersion, h.Version)
}

func TestReadHits_MalformedRow_ReturnsError(t *testing.T) {
	data := "cell_id,energy,energy_error,time,x,y,z,type\n1,abc,0,0,0,0,0,0\n"
	_, err := ReadHits(strings.NewReader(data))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "energy")
}

func TestReadHits_WrongColumnCount_ReturnsError(t *testing.T) {
	data := "cell_id,energy,energy_error,time,x,y,z,type\n1,2,3\n"
	_, err := ReadHits(strings.NewReader(data))
	assert.Error(t, err)
}

func TestLoad_HitCountMismatch_ReturnsError(t *testing.T) {
	dir := t.TempDir()
	headerPath := filepath.Join(dir, "hits.yaml")
	dataPath := filepath.Join(dir, "hits.csv")
	require.NoError(t, os.WriteFile(headerPath, []byte("version: 1\ncollection: c\nhits: 3\n"), 0644))
	var buf bytes.Buffer
	require.NoError(t, WriteHits(&buf, []sim.Hit{{CellID: 1}}))
	require.NoError(t, os.WriteFile(dataPath, buf.Bytes(), 0644))

	_, err := Load(headerPath, dataPath)
	assert.Error(t, err)
}
