package packetid

// Names of the packets worldtap intercepts.
const (
	Intention = "Intention"

	LoginDisconnect     = "LoginDisconnect"
	EncryptionRequest   = "EncryptionRequest"
	LoginSuccess        = "LoginSuccess"
	SetCompression      = "SetCompression"
	LoginPluginRequest  = "LoginPluginRequest"
	LoginStart          = "LoginStart"
	EncryptionResponse  = "EncryptionResponse"
	LoginPluginResponse = "LoginPluginResponse"
	LoginAcknowledged   = "LoginAcknowledged"

	FinishConfiguration    = "FinishConfiguration"
	FinishConfigurationAck = "FinishConfigurationAck"
	RegistryData           = "RegistryData"

	ContainerSetContent = "ContainerSetContent"
	Login               = "Login"
	Respawn             = "Respawn"
	StartConfiguration  = "StartConfiguration"
	SetCursorItem       = "SetCursorItem"
	SetPlayerInventory  = "SetPlayerInventory"
	MovePlayerPos       = "MovePlayerPos"
	MovePlayerPosRot    = "MovePlayerPosRot"
)
