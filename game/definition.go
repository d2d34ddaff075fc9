// Package game holds the declarative game definition (rooms, objects,
// puzzles) and the runtime state types derived from it. The definition is
// loaded once from JSON, validated, and never mutated afterwards.
package game

import (
	"encoding/json"
	"fmt"
	"os"
)

// Role 玩家角色
type Role string

const (
	RoleAnalyst     Role = "Analyst"
	RoleTech        Role = "Tech"
	RoleOperator    Role = "Operator"
	RoleLogistician Role = "Logistician"
)

// ObjectType 对象类型标签（JSON 判别字段）
type ObjectType string

const (
	TypeSwitch      ObjectType = "switch"
	TypeValve       ObjectType = "valve"
	TypePanel       ObjectType = "panel"
	TypeConsole     ObjectType = "console"
	TypeWeightPlate ObjectType = "weightPlate"
	TypeItem        ObjectType = "item"
	TypeDoor        ObjectType = "door"
	TypeLED         ObjectType = "led"
)

// ObjectState 开关/阀门/LED 状态
type ObjectState string

const (
	StateOff   ObjectState = "off"
	StateOn    ObjectState = "on"
	StateRed   ObjectState = "red"
	StateGreen ObjectState = "green"
)

// PanelContent is the readable content of a panel, optionally embedding a
// secret code another role must transcribe into a console.
type PanelContent struct {
	Title   string `json:"title"`
	Text    string `json:"text"`
	Code    string `json:"code,omitempty"`
	ImageID string `json:"imageId,omitempty"`
}

// ConsoleSpec 控制台的输入格式配置
type ConsoleSpec struct {
	Accept      string `json:"accept"` // "code4" | "codeN" | "sequence"
	ValidFormat string `json:"validFormatRegex,omitempty"`
}

// Object 是场景对象的判别联合，Type 决定哪些变体字段有效。
// 保持扁平结构以便直接从 JSON 反序列化并整体拷贝。
type Object struct {
	ID       string     `json:"id"`
	Type     ObjectType `json:"type"`
	Name     string     `json:"name,omitempty"`
	X        int        `json:"x"`
	Y        int        `json:"y"`
	Tooltip  string     `json:"tooltip,omitempty"`
	RoleLock Role       `json:"roleLock,omitempty"`
	Requires []string   `json:"requires,omitempty"`
	MiniGame string     `json:"miniGame,omitempty"`

	// switch / valve / led
	State      ObjectState `json:"state,omitempty"`
	CooldownMs int64       `json:"cooldownMs,omitempty"`
	LEDID      string      `json:"ledId,omitempty"` // switch 联动的 LED

	// panel
	Content *PanelContent `json:"content,omitempty"`

	// console
	Console   *ConsoleSpec `json:"console,omitempty"`
	LastInput string       `json:"lastInput,omitempty"`
	Correct   bool         `json:"correct,omitempty"`

	// weightPlate
	RequiredWeight int    `json:"requiredWeight,omitempty"`
	AcceptsItemID  string `json:"acceptsItemId,omitempty"`
	HasItem        bool   `json:"hasItem,omitempty"`

	// item
	CarriedBy string `json:"carriedBy,omitempty"`

	// door
	Open     bool     `json:"open,omitempty"`
	LockedBy []string `json:"lockedBy,omitempty"`

	// led
	Label   string `json:"label,omitempty"` // "ON" | "OFF"
	BindsTo string `json:"bindsTo,omitempty"`
}

// Clone returns a deep copy of the object for the runtime snapshot.
func (o *Object) Clone() *Object {
	c := *o
	if o.Content != nil {
		content := *o.Content
		c.Content = &content
	}
	if o.Console != nil {
		console := *o.Console
		c.Console = &console
	}
	if o.Requires != nil {
		c.Requires = append([]string(nil), o.Requires...)
	}
	if o.LockedBy != nil {
		c.LockedBy = append([]string(nil), o.LockedBy...)
	}
	return &c
}

// PuzzleType 谜题类型标签
type PuzzleType string

const (
	PuzzleMultiSwitch PuzzleType = "multiSwitch"
	PuzzleMultiValve  PuzzleType = "multiValve"
	PuzzleInfoSplit   PuzzleType = "infoSplit"
	PuzzleSequence    PuzzleType = "sequence"
	PuzzleWeightPlate PuzzleType = "weightPlate"
)

// DistanceGate 要求所有在场玩家两两间隔至少 MinTiles 格
type DistanceGate struct {
	MinTiles int `json:"minTiles"`
}

// SoloLatch 单人调试模式下的自锁配置：开关保持 on 状态 LatchMs 毫秒，
// 模拟第二名操作员。
type SoloLatch struct {
	Latched bool  `json:"latched"`
	LatchMs int64 `json:"latchMs"`
}

// PlateRequirement names one plate of a weightPlate puzzle and what it
// needs ("players", "chock", "item"...).
type PlateRequirement struct {
	ID   string `json:"id"`
	Need string `json:"need"`
}

// Puzzle 是谜题的判别联合，Type 决定哪些变体字段有效。
type Puzzle struct {
	ID       string     `json:"id"`
	Type     PuzzleType `json:"type"`
	Requires []string   `json:"requires,omitempty"`

	// multiSwitch / multiValve
	IDs             []string      `json:"ids,omitempty"`
	Simultaneous    bool          `json:"simultaneous,omitempty"`
	PlayersRequired int           `json:"playersRequired,omitempty"`
	WindowMs        int64         `json:"windowMs,omitempty"`
	DistanceGate    *DistanceGate `json:"distanceGate,omitempty"`
	DebugSolo       *SoloLatch    `json:"debugSolo,omitempty"`

	// infoSplit
	SourcePanel   string `json:"sourcePanel,omitempty"`
	TargetConsole string `json:"targetConsole,omitempty"`
	CodeFormat    string `json:"codeFormat,omitempty"`
	SoloNote      bool   `json:"soloNote,omitempty"`

	// sequence
	Order           []string `json:"order,omitempty"`
	ResetOnError    bool     `json:"resetOnError,omitempty"`
	LockMs          int64    `json:"lockMs,omitempty"`
	PerStepWindowMs int64    `json:"perStepWindowMs,omitempty"`

	// weightPlate
	Plates []PlateRequirement `json:"plates,omitempty"`
}

// Grid 房间网格大小
type Grid struct {
	Cols int `json:"cols"`
	Rows int `json:"rows"`
}

// Spawn 房间出生点
type Spawn struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// RoomOutputs is what completing a room grants the team.
type RoomOutputs struct {
	Keys     []string `json:"keys,omitempty"`
	CodePart string   `json:"codePart,omitempty"`
}

// Room 房间定义：网格、对象、谜题与通关产出
type Room struct {
	ID               string       `json:"id"`
	Name             string       `json:"name"`
	Grid             Grid         `json:"grid"`
	Spawn            Spawn        `json:"spawn"`
	Objects          []*Object    `json:"objects"`
	Puzzles          []*Puzzle    `json:"puzzles"`
	SuccessCondition string       `json:"successCondition,omitempty"`
	Outputs          *RoomOutputs `json:"outputs,omitempty"`
	Hint             string       `json:"hint,omitempty"`
}

// TimerConfig 倒计时配置
type TimerConfig struct {
	DurationMs int64 `json:"durationMs"`
}

// ScoringConfig 计分配置
type ScoringConfig struct {
	BaseScore    int `json:"baseScore"`
	MaxHints     int `json:"maxHints"`
	HintCost     int `json:"hintCost"`
	ErrorPenalty int `json:"errorPenalty"`
}

// UIConfig carries the parts of the presentation contract the core needs.
type UIConfig struct {
	AdjacencyRange int `json:"adjacencyRange"`
}

// DebugSoloConfig 单人调试模式全局配置
type DebugSoloConfig struct {
	Enabled bool  `json:"enabled"`
	LatchMs int64 `json:"latchMs"`
}

// Definition 游戏定义根节点。加载后只读。
type Definition struct {
	Title       string          `json:"title"`
	Description string          `json:"description,omitempty"`
	Timer       TimerConfig     `json:"timer"`
	Roles       []Role          `json:"roles"`
	UI          UIConfig        `json:"ui"`
	Scoring     ScoringConfig   `json:"scoring"`
	DebugSolo   DebugSoloConfig `json:"debugSolo"`
	Rooms       []*Room         `json:"rooms"`
}

// Load reads and validates a game definition from a JSON file. Any
// validation failure is fatal for the session: the caller must not start.
func Load(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read game definition: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a game definition from raw JSON.
func Parse(data []byte) (*Definition, error) {
	var def Definition
	if err := json.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("decode game definition: %w", err)
	}
	if err := def.Validate(); err != nil {
		return nil, fmt.Errorf("invalid game definition: %w", err)
	}
	return &def, nil
}

// RoomByID 按 ID 查找房间
func (d *Definition) RoomByID(id string) *Room {
	for _, r := range d.Rooms {
		if r.ID == id {
			return r
		}
	}
	return nil
}

// NextRoomID returns the room after roomID in declaration order, or ""
// when roomID is last or unknown. Declaration order is the progression
// order.
func (d *Definition) NextRoomID(roomID string) string {
	for i, r := range d.Rooms {
		if r.ID == roomID && i+1 < len(d.Rooms) {
			return d.Rooms[i+1].ID
		}
	}
	return ""
}

// PuzzleByID 在全部房间中按 ID 查找谜题
func (d *Definition) PuzzleByID(id string) *Puzzle {
	for _, r := range d.Rooms {
		for _, p := range r.Puzzles {
			if p.ID == id {
				return p
			}
		}
	}
	return nil
}

// RoomOfPuzzle returns the room declaring the given puzzle id.
func (d *Definition) RoomOfPuzzle(id string) *Room {
	for _, r := range d.Rooms {
		for _, p := range r.Puzzles {
			if p.ID == id {
				return r
			}
		}
	}
	return nil
}
