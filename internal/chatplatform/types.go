package chatplatform

// Типы каналов чат-платформы.
const (
	ChannelTypeGuildText = 0
)

// Типы субъектов в permission overwrite.
const (
	OverwriteTypeRole   = 0
	OverwriteTypeMember = 1
)

// Битовые маски прав, значения передаются строками.
const (
	PermissionViewChannel  = "1024"
	PermissionViewAndWrite = "3072" // VIEW_CHANNEL | SEND_MESSAGES
)

// PermissionOverwrite задаёт права роли или участника на канал.
type PermissionOverwrite struct {
	ID    string `json:"id"`
	Type  int    `json:"type"`
	Allow string `json:"allow,omitempty"`
	Deny  string `json:"deny,omitempty"`
}

// CreateChannelParams представляет запрос на создание канала.
type CreateChannelParams struct {
	Name                 string                `json:"name"`
	Type                 int                   `json:"type"`
	ParentID             string                `json:"parent_id,omitempty"`
	Topic                string                `json:"topic,omitempty"`
	PermissionOverwrites []PermissionOverwrite `json:"permission_overwrites,omitempty"`
}

// Channel представляет канал чат-платформы.
type Channel struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Type     int    `json:"type"`
	ParentID string `json:"parent_id"`
}

// Message представляет сообщение в канале.
type Message struct {
	ID        string `json:"id"`
	ChannelID string `json:"channel_id"`
	Content   string `json:"content"`
}

// CreateInviteParams представляет запрос на создание приглашения.
type CreateInviteParams struct {
	MaxAge  int  `json:"max_age"`
	MaxUses int  `json:"max_uses"`
	Unique  bool `json:"unique"`
}

// Invite представляет приглашение на сервер.
type Invite struct {
	Code string `json:"code"`
}
