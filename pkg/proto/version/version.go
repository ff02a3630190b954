// Package version lists the Minecraft Java edition versions worldtap can intercept.
package version

import (
	"fmt"
	"sort"
	"strconv"

	"go.minekube.com/worldtap/pkg/proto"
)

var (
	Unknown          = &proto.Version{Protocol: -1, Names: s("Unknown")}
	Minecraft_1_16_2 = &proto.Version{Protocol: 751, Names: s("1.16.2")}
	Minecraft_1_16_3 = &proto.Version{Protocol: 753, Names: s("1.16.3")}
	Minecraft_1_16_4 = &proto.Version{Protocol: 754, Names: s("1.16.4", "1.16.5")}
	Minecraft_1_17   = &proto.Version{Protocol: 755, Names: s("1.17")}
	Minecraft_1_17_1 = &proto.Version{Protocol: 756, Names: s("1.17.1")}
	Minecraft_1_18   = &proto.Version{Protocol: 757, Names: s("1.18", "1.18.1")}
	Minecraft_1_18_2 = &proto.Version{Protocol: 758, Names: s("1.18.2")}
	Minecraft_1_19   = &proto.Version{Protocol: 759, Names: s("1.19")}
	Minecraft_1_19_1 = &proto.Version{Protocol: 760, Names: s("1.19.1", "1.19.2")}
	Minecraft_1_19_3 = &proto.Version{Protocol: 761, Names: s("1.19.3")}
	Minecraft_1_19_4 = &proto.Version{Protocol: 762, Names: s("1.19.4")}
	Minecraft_1_20   = &proto.Version{Protocol: 763, Names: s("1.20", "1.20.1")}
	Minecraft_1_20_2 = &proto.Version{Protocol: 764, Names: s("1.20.2")}
	Minecraft_1_20_3 = &proto.Version{Protocol: 765, Names: s("1.20.3", "1.20.4")}
	Minecraft_1_20_5 = &proto.Version{Protocol: 766, Names: s("1.20.5", "1.20.6")}
	Minecraft_1_21   = &proto.Version{Protocol: 767, Names: s("1.21", "1.21.1")}
	Minecraft_1_21_2 = &proto.Version{Protocol: 768, Names: s("1.21.2", "1.21.3")}
	Minecraft_1_21_4 = &proto.Version{Protocol: 769, Names: s("1.21.4")}

	// Versions ordered from lowest to highest
	Versions = []*proto.Version{
		Unknown,
		Minecraft_1_16_2, Minecraft_1_16_3, Minecraft_1_16_4,
		Minecraft_1_17, Minecraft_1_17_1,
		Minecraft_1_18, Minecraft_1_18_2,
		Minecraft_1_19, Minecraft_1_19_1, Minecraft_1_19_3, Minecraft_1_19_4,
		Minecraft_1_20, Minecraft_1_20_2, Minecraft_1_20_3, Minecraft_1_20_5,
		Minecraft_1_21, Minecraft_1_21_2, Minecraft_1_21_4,
	}
)

var (
	ProtocolToVersion = func() map[proto.Protocol]*proto.Version {
		m := make(map[proto.Protocol]*proto.Version, len(Versions))
		for _, v := range Versions {
			m[v.Protocol] = v
		}
		return m
	}()
	SupportedVersions = func() (v []*proto.Version) {
		for _, ver := range Versions {
			if ver != Unknown {
				v = append(v, ver)
			}
		}
		return
	}()
)

var (
	// MinimumVersion is the lowest supported version.
	MinimumVersion = SupportedVersions[0]
	// MaximumVersion is the highest supported version.
	MaximumVersion = SupportedVersions[len(SupportedVersions)-1]
	// SupportedVersionsString is the supported versions range as a string.
	SupportedVersionsString = fmt.Sprintf("%s-%s", MinimumVersion, MaximumVersion)
)

// Protocol is proto.Protocol with additional methods for supported versions.
type Protocol proto.Protocol

// Version gets the Version by the protocol id
// or returns the Unknown version if not found.
func (p Protocol) Version() *proto.Version {
	v, ok := ProtocolToVersion[proto.Protocol(p)]
	if !ok {
		v = Unknown
	}
	return v
}

func (p Protocol) String() string {
	v := p.Version()
	if v == Unknown {
		return strconv.Itoa(int(p))
	}
	return fmt.Sprintf("%s(%d)", v.String(), p)
}

// Supported returns true if the protocol is a version worldtap can intercept.
func (p Protocol) Supported() bool {
	return p.Version() != Unknown
}

// Floor returns the newest supported version whose protocol
// is lower or equal to p, or nil if p predates MinimumVersion.
// Snapshots between two releases map onto the older release.
func Floor(p proto.Protocol) *proto.Version {
	i := sort.Search(len(SupportedVersions), func(i int) bool {
		return SupportedVersions[i].Protocol > p
	})
	if i == 0 {
		return nil
	}
	return SupportedVersions[i-1]
}

// helper func
func s(s ...string) []string { return s }
