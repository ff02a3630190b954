package handler

import (
	"go.minekube.com/worldtap/pkg/proto"
	"go.minekube.com/worldtap/pkg/proto/packetid"
	"go.minekube.com/worldtap/pkg/proto/version"
)

// Deltas returns the operator changes of every supported version,
// oldest first.
func Deltas() []Delta {
	return []Delta{
		{Since: version.Minecraft_1_16_2, Entries: []Entry{
			clientbound(proto.LoginState, packetid.SetCompression, setCompression),
			clientbound(proto.LoginState, packetid.EncryptionRequest, encryptionRequest),
			clientbound(proto.LoginState, packetid.LoginSuccess, enterState(proto.PlayState)),

			clientbound(proto.PlayState, packetid.Login, loginLayout_1_16_2.login),
			clientbound(proto.PlayState, packetid.Respawn, respawn(typeByProperties)),
			clientbound(proto.PlayState, packetid.ContainerSetContent, containerContent(false, false)),
			serverbound(proto.PlayState, packetid.MovePlayerPos, movePlayer),
			serverbound(proto.PlayState, packetid.MovePlayerPosRot, movePlayer),
		}},
		{Since: version.Minecraft_1_17_1, Entries: []Entry{
			clientbound(proto.PlayState, packetid.ContainerSetContent, containerContent(false, true)),
		}},
		{Since: version.Minecraft_1_19, Entries: []Entry{
			clientbound(proto.PlayState, packetid.Login, loginLayout_1_19.login),
			clientbound(proto.PlayState, packetid.Respawn, respawn(typeByName)),
		}},
		{Since: version.Minecraft_1_20_2, Entries: []Entry{
			// login now hands over to the configuration phase
			clientbound(proto.LoginState, packetid.LoginSuccess, nil),
			serverbound(proto.LoginState, packetid.LoginAcknowledged, enterState(proto.ConfigurationState)),

			clientbound(proto.ConfigurationState, packetid.RegistryData, registryCodec),
			clientbound(proto.ConfigurationState, packetid.FinishConfiguration, enterState(proto.PlayState)),

			clientbound(proto.PlayState, packetid.Login, loginLayout_1_20_2.login),
			clientbound(proto.PlayState, packetid.StartConfiguration, enterState(proto.ConfigurationState)),
		}},
		{Since: version.Minecraft_1_20_5, Entries: []Entry{
			clientbound(proto.ConfigurationState, packetid.RegistryData, registryStream),
			clientbound(proto.PlayState, packetid.Login, loginLayout_1_20_5.login),
			clientbound(proto.PlayState, packetid.Respawn, respawn(typeByID)),
		}},
		{Since: version.Minecraft_1_21_2, Entries: []Entry{
			clientbound(proto.PlayState, packetid.ContainerSetContent, containerContent(true, true)),
			clientbound(proto.PlayState, packetid.SetCursorItem, setCursorItem),
			clientbound(proto.PlayState, packetid.SetPlayerInventory, setPlayerInventory),
		}},
	}
}
