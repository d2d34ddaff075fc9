package game

// Facing 朝向
type Facing string

const (
	FacingNorth Facing = "N"
	FacingSouth Facing = "S"
	FacingEast  Facing = "E"
	FacingWest  Facing = "W"
)

// PlayerState 单个参与者的权威状态
type PlayerState struct {
	SessionID   string `json:"sessionId"`
	DisplayName string `json:"displayName"`
	Role        Role   `json:"role,omitempty"`
	X           int    `json:"x"`
	Y           int    `json:"y"`
	Facing      Facing `json:"facing"`
}

// PuzzleProgress 单个谜题的运行时状态。Activations 记录每个贡献对象
// 最近一次激活的毫秒时间戳，供同时性窗口判定。
type PuzzleProgress struct {
	Success     bool             `json:"success"`
	Reason      string           `json:"reason,omitempty"`
	CurrentStep int              `json:"currentStep"`
	Locked      bool             `json:"locked,omitempty"`
	LockUntil   int64            `json:"lockUntil,omitempty"`
	LastStepTS  int64            `json:"lastStepTs,omitempty"`
	Activations map[string]int64 `json:"activations,omitempty"`
}

// Clone returns a deep copy of the progress record.
func (p *PuzzleProgress) Clone() *PuzzleProgress {
	c := *p
	if p.Activations != nil {
		c.Activations = make(map[string]int64, len(p.Activations))
		for k, v := range p.Activations {
			c.Activations[k] = v
		}
	}
	return &c
}

// Snapshot is the externally visible, JSON-serializable projection of the
// authoritative state. It is the unit replicated to every participant.
type Snapshot struct {
	RoomID    string                     `json:"roomId"`
	TimerMs   int64                      `json:"timerMs"`
	Score     int                        `json:"score"`
	Errors    int                        `json:"errors"`
	HintsUsed int                        `json:"hintsUsed"`
	Objects   map[string]*Object         `json:"objects"`
	Puzzles   map[string]*PuzzleProgress `json:"puzzles"`
	Keys      []string                   `json:"keys"`
	CodeParts map[string]string          `json:"codeParts"`
}

// NewSnapshot builds the initial runtime state from a definition: deep
// copies of every object, empty (unsolved) puzzle progress, full timer,
// base score.
func NewSnapshot(def *Definition) *Snapshot {
	snap := &Snapshot{
		TimerMs:   def.Timer.DurationMs,
		Score:     def.Scoring.BaseScore,
		Objects:   make(map[string]*Object),
		Puzzles:   make(map[string]*PuzzleProgress),
		Keys:      []string{},
		CodeParts: make(map[string]string),
	}
	if len(def.Rooms) > 0 {
		snap.RoomID = def.Rooms[0].ID
	}
	for _, room := range def.Rooms {
		for _, obj := range room.Objects {
			snap.Objects[obj.ID] = obj.Clone()
		}
		for _, p := range room.Puzzles {
			snap.Puzzles[p.ID] = &PuzzleProgress{}
		}
	}
	return snap
}

// Clone returns a deep copy of the snapshot, safe to hand to consumers
// outside the authoritative writer.
func (s *Snapshot) Clone() *Snapshot {
	c := &Snapshot{
		RoomID:    s.RoomID,
		TimerMs:   s.TimerMs,
		Score:     s.Score,
		Errors:    s.Errors,
		HintsUsed: s.HintsUsed,
		Objects:   make(map[string]*Object, len(s.Objects)),
		Puzzles:   make(map[string]*PuzzleProgress, len(s.Puzzles)),
		Keys:      append([]string(nil), s.Keys...),
		CodeParts: make(map[string]string, len(s.CodeParts)),
	}
	for id, obj := range s.Objects {
		c.Objects[id] = obj.Clone()
	}
	for id, p := range s.Puzzles {
		c.Puzzles[id] = p.Clone()
	}
	for k, v := range s.CodeParts {
		c.CodeParts[k] = v
	}
	return c
}

// HasKey reports whether the team has collected the given key.
func (s *Snapshot) HasKey(key string) bool {
	for _, k := range s.Keys {
		if k == key {
			return true
		}
	}
	return false
}
