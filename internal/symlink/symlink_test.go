package symlink

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSanitise_StripsReservedChars(t *testing.T) {
	require.Equal(t, "Show Name 2020", Sanitise(`Show: Name <2020> /\|?*`))
}

func TestSanitise_TrimsTrailingSpaceAndDot(t *testing.T) {
	require.Equal(t, "Show Name", Sanitise("Show Name. "))
}

func TestPathMapping_Rewrite(t *testing.T) {
	m := PathMapping{HostPrefix: "/mnt/remote", ConsumerPrefix: "/data/media"}
	require.Equal(t, "/data/media/Show/ep.mkv", m.Rewrite("/mnt/remote/Show/ep.mkv"))
	require.Equal(t, "/other/Show/ep.mkv", m.Rewrite("/other/Show/ep.mkv"))
}
