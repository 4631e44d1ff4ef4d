package release

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNextVersionBumpsMinorAndKeepsPatch(t *testing.T) {
	cases := map[string]string{
		"v1.2.3":  "v1.3.3",
		"":        "v0.1.0",
		"v0.0.0":  "v0.1.0",
		"v2.9.0":  "v2.10.0",
		"v0.41.7": "v0.42.7",
	}
	for in, want := range cases {
		got, err := NextVersion(in)
		require.NoError(t, err, in)
		require.Equal(t, want, got, in)
	}
}

func TestNextVersionRejectsMalformedTags(t *testing.T) {
	for _, in := range []string{"v1.2", "v1.2.3.4", "v1.x.0", "release"} {
		_, err := NextVersion(in)
		var verr *VersioningError
		require.True(t, errors.As(err, &verr), "%s: %v", in, err)
		require.Equal(t, in, verr.Tag)
	}
}

func TestHighestPicksGreatestSemver(t *testing.T) {
	require.Equal(t, "v1.10.0", Highest([]string{"v1.9.0", "v1.10.0", "latest", "v1.2.3"}))
	require.Equal(t, "", Highest([]string{"nightly"}))
	require.Equal(t, "", Highest(nil))
}
