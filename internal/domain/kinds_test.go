package domain_test

import (
	"testing"

	"github.com/preflightci/preflight/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestSpecFor_KnownKinds(t *testing.T) {
	for _, k := range domain.ValidKinds {
		spec := domain.SpecFor(k)
		if k == domain.KindUnknown {
			continue
		}
		assert.NotEmpty(t, spec.SourceExts, "kind %s has no source extensions", k)
	}
}

func TestSpecFor_Unrecognized(t *testing.T) {
	spec := domain.SpecFor(domain.Kind("cobol"))
	assert.Equal(t, domain.SpecFor(domain.KindUnknown), spec)
}

func TestKindSpec_StaticHTMLHasNoBuild(t *testing.T) {
	spec := domain.SpecFor(domain.KindStaticHTML)
	assert.False(t, spec.HasBuild())
	assert.True(t, spec.HasStart())
	assert.Equal(t, 8080, spec.DefaultPort)
	assert.Equal(t, "/", spec.HealthPath)
}

func TestKindSpec_OptionalBuildKnownAPriori(t *testing.T) {
	// Node server kinds may legitimately lack a build script; framework
	// kinds may not.
	assert.True(t, domain.SpecFor(domain.KindExpress).BuildOptional)
	assert.True(t, domain.SpecFor(domain.KindNode).BuildOptional)
	assert.False(t, domain.SpecFor(domain.KindReact).BuildOptional)
	assert.False(t, domain.SpecFor(domain.KindNextJS).BuildOptional)
}

func TestKindSpec_PythonCompilesEachFile(t *testing.T) {
	for _, k := range []domain.Kind{domain.KindPython, domain.KindFlask, domain.KindDjango, domain.KindFastAPI} {
		spec := domain.SpecFor(k)
		assert.True(t, spec.CompileEach, "kind %s", k)
		assert.Empty(t, spec.BuildCommand, "kind %s", k)
	}
}

func TestKindFamilies(t *testing.T) {
	assert.True(t, domain.KindReact.IsNodeFamily())
	assert.True(t, domain.KindExpress.IsNodeFamily())
	assert.False(t, domain.KindGo.IsNodeFamily())
	assert.True(t, domain.KindFlask.IsPythonFamily())
	assert.False(t, domain.KindStaticHTML.IsPythonFamily())
}

func TestIsValidKind(t *testing.T) {
	assert.True(t, domain.IsValidKind(domain.KindVue))
	assert.True(t, domain.IsValidKind(domain.KindUnknown))
	assert.False(t, domain.IsValidKind(domain.Kind("fortran")))
}
