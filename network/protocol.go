package network

// 客户端 → 服务端
const (
	MsgTypeHeartbeat       = 1
	MsgTypeCreateRoom      = 101
	MsgTypeJoinRoom        = 102
	MsgTypeLeaveRoom       = 103
	MsgTypeChooseRole      = 104
	MsgTypeMove            = 201
	MsgTypeInteract        = 202
	MsgTypeConsoleSubmit   = 203
	MsgTypePickPlace       = 204
	MsgTypeUseHint         = 205
	MsgTypeRequestSnapshot = 206
	MsgTypeChat            = 207
)

// 服务端 → 客户端
const (
	MsgTypeSnapshot     = 301
	MsgTypeEvent        = 302
	MsgTypeRoster       = 303
	MsgTypeChatMessage  = 304
	MsgTypeActionResult = 305
	MsgTypeError        = 401
)

// CreateRoomRequest 创建房间
type CreateRoomRequest struct {
	DisplayName string `json:"display_name"`
}

// CreateRoomResponse 返回房间码
type CreateRoomResponse struct {
	RoomCode string `json:"room_code"`
}

// JoinRoomRequest 按房间码加入
type JoinRoomRequest struct {
	RoomCode    string `json:"room_code"`
	DisplayName string `json:"display_name"`
}

// ChooseRoleRequest 选择角色
type ChooseRoleRequest struct {
	Role string `json:"role"`
}

// MoveRequest 网格移动
type MoveRequest struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// InteractRequest 与对象交互
type InteractRequest struct {
	ObjectID  string `json:"object_id"`
	DebugMode bool   `json:"debug_mode,omitempty"`
}

// ConsoleSubmitRequest 控制台提交代码
type ConsoleSubmitRequest struct {
	ConsoleID string `json:"console_id"`
	Input     string `json:"input"`
}

// PickPlaceRequest 拾取/放置物品
type PickPlaceRequest struct {
	ItemID  string `json:"item_id"`
	Action  string `json:"action"` // "pick" | "place"
	TargetX int    `json:"target_x,omitempty"`
	TargetY int    `json:"target_y,omitempty"`
}

// UseHintRequest 请求提示
type UseHintRequest struct {
	RoomID string `json:"room_id"`
}

// ChatRequest 聊天消息
type ChatRequest struct {
	Text string `json:"text"`
}

// ActionResultResponse 动作裁决回执，只发给动作发起者
type ActionResultResponse struct {
	Action   string `json:"action"`
	Accepted bool   `json:"accepted"`
	Reason   string `json:"reason,omitempty"`
}

// ErrorResponse 错误通知
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
