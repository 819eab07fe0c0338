package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssemblySpecsSetMinimal(t *testing.T) {
	var specs assemblySpecs
	require.NoError(t, specs.Set("asmA:contigs.fasta:coords.coords"))
	require.Len(t, specs, 1)
	assert.Equal(t, assemblySpec{Name: "asmA", Contigs: "contigs.fasta", Coords: "coords.coords"}, specs[0])
}

func TestAssemblySpecsSetWithSNPsAndSVHints(t *testing.T) {
	var specs assemblySpecs
	require.NoError(t, specs.Set("asmB:c.fasta:c.coords:c.snps:c.bed"))
	require.Len(t, specs, 1)
	assert.Equal(t, "c.snps", specs[0].SNPs)
	assert.Equal(t, "c.bed", specs[0].SVHints)
}

func TestAssemblySpecsSetRejectsTooFewFields(t *testing.T) {
	var specs assemblySpecs
	err := specs.Set("asmA:contigs.fasta")
	assert.Error(t, err)
	assert.Empty(t, specs)
}

func TestAssemblySpecsStringJoinsNames(t *testing.T) {
	specs := assemblySpecs{{Name: "a"}, {Name: "b"}}
	assert.Equal(t, "a,b", specs.String())
}
