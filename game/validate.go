package game

import (
	"errors"
	"fmt"
)

var validObjectTypes = map[ObjectType]bool{
	TypeSwitch:      true,
	TypeValve:       true,
	TypePanel:       true,
	TypeConsole:     true,
	TypeWeightPlate: true,
	TypeItem:        true,
	TypeDoor:        true,
	TypeLED:         true,
}

var validPuzzleTypes = map[PuzzleType]bool{
	PuzzleMultiSwitch: true,
	PuzzleMultiValve:  true,
	PuzzleInfoSplit:   true,
	PuzzleSequence:    true,
	PuzzleWeightPlate: true,
}

var validRoles = map[Role]bool{
	RoleAnalyst:     true,
	RoleTech:        true,
	RoleOperator:    true,
	RoleLogistician: true,
}

// ErrNoRooms 定义中没有任何房间
var ErrNoRooms = errors.New("definition declares no rooms")

// Validate checks the whole definition tree. It is strict: unknown type
// tags, duplicate ids, and dangling references all fail, because a broken
// definition must never reach a live session.
func (d *Definition) Validate() error {
	if d.Timer.DurationMs <= 0 {
		return fmt.Errorf("timer.durationMs must be positive, got %d", d.Timer.DurationMs)
	}
	if d.Scoring.BaseScore <= 0 {
		return fmt.Errorf("scoring.baseScore must be positive, got %d", d.Scoring.BaseScore)
	}
	if d.UI.AdjacencyRange <= 0 {
		return fmt.Errorf("ui.adjacencyRange must be positive, got %d", d.UI.AdjacencyRange)
	}
	for _, role := range d.Roles {
		if !validRoles[role] {
			return fmt.Errorf("unknown role %q", role)
		}
	}
	if len(d.Rooms) == 0 {
		return ErrNoRooms
	}

	objects := make(map[string]*Object)
	puzzles := make(map[string]*Puzzle)
	for _, room := range d.Rooms {
		if room.ID == "" {
			return errors.New("room with empty id")
		}
		if room.Grid.Cols <= 0 || room.Grid.Rows <= 0 {
			return fmt.Errorf("room %s: grid must be positive, got %dx%d", room.ID, room.Grid.Cols, room.Grid.Rows)
		}
		for _, obj := range room.Objects {
			if err := validateObject(room, obj); err != nil {
				return err
			}
			if _, dup := objects[obj.ID]; dup {
				return fmt.Errorf("duplicate object id %q", obj.ID)
			}
			objects[obj.ID] = obj
		}
		for _, p := range room.Puzzles {
			if p.ID == "" {
				return fmt.Errorf("room %s: puzzle with empty id", room.ID)
			}
			if !validPuzzleTypes[p.Type] {
				return fmt.Errorf("puzzle %s: unknown type %q", p.ID, p.Type)
			}
			if _, dup := puzzles[p.ID]; dup {
				return fmt.Errorf("duplicate puzzle id %q", p.ID)
			}
			puzzles[p.ID] = p
		}
	}

	// Cross references are resolved only after every room is indexed, so
	// puzzles may reference objects in other rooms.
	for _, room := range d.Rooms {
		for _, p := range room.Puzzles {
			if err := validatePuzzleRefs(p, objects, puzzles); err != nil {
				return err
			}
		}
		for _, obj := range room.Objects {
			for _, req := range obj.Requires {
				if _, ok := puzzles[req]; !ok {
					return fmt.Errorf("object %s: requires unknown puzzle %q", obj.ID, req)
				}
			}
			if obj.Type == TypeSwitch && obj.LEDID != "" {
				led, ok := objects[obj.LEDID]
				if !ok || led.Type != TypeLED {
					return fmt.Errorf("switch %s: ledId %q is not a led object", obj.ID, obj.LEDID)
				}
			}
		}
	}
	return nil
}

func validateObject(room *Room, obj *Object) error {
	if obj.ID == "" {
		return fmt.Errorf("room %s: object with empty id", room.ID)
	}
	if !validObjectTypes[obj.Type] {
		return fmt.Errorf("object %s: unknown type %q", obj.ID, obj.Type)
	}
	if obj.X < 0 || obj.Y < 0 || obj.X >= room.Grid.Cols || obj.Y >= room.Grid.Rows {
		return fmt.Errorf("object %s: position (%d,%d) outside %dx%d grid", obj.ID, obj.X, obj.Y, room.Grid.Cols, room.Grid.Rows)
	}
	if obj.RoleLock != "" && !validRoles[obj.RoleLock] {
		return fmt.Errorf("object %s: unknown roleLock %q", obj.ID, obj.RoleLock)
	}
	switch obj.Type {
	case TypeSwitch, TypeValve:
		if obj.State != StateOff && obj.State != StateOn {
			return fmt.Errorf("object %s: %s state must be off/on, got %q", obj.ID, obj.Type, obj.State)
		}
	case TypePanel:
		if obj.Content == nil {
			return fmt.Errorf("panel %s: missing content", obj.ID)
		}
	case TypeConsole:
		if obj.Console == nil {
			return fmt.Errorf("console %s: missing console spec", obj.ID)
		}
	case TypeWeightPlate:
		if obj.RequiredWeight <= 0 {
			return fmt.Errorf("weightPlate %s: requiredWeight must be positive, got %d", obj.ID, obj.RequiredWeight)
		}
	case TypeLED:
		if obj.State != StateRed && obj.State != StateGreen {
			return fmt.Errorf("led %s: state must be red/green, got %q", obj.ID, obj.State)
		}
	}
	return nil
}

func validatePuzzleRefs(p *Puzzle, objects map[string]*Object, puzzles map[string]*Puzzle) error {
	for _, req := range p.Requires {
		if _, ok := puzzles[req]; !ok {
			return fmt.Errorf("puzzle %s: requires unknown puzzle %q", p.ID, req)
		}
	}
	switch p.Type {
	case PuzzleMultiSwitch, PuzzleMultiValve:
		if len(p.IDs) == 0 {
			return fmt.Errorf("puzzle %s: empty ids list", p.ID)
		}
		want := TypeSwitch
		if p.Type == PuzzleMultiValve {
			want = TypeValve
		}
		for _, id := range p.IDs {
			obj, ok := objects[id]
			if !ok {
				return fmt.Errorf("puzzle %s: references unknown object %q", p.ID, id)
			}
			if obj.Type != want {
				return fmt.Errorf("puzzle %s: object %q is %s, want %s", p.ID, id, obj.Type, want)
			}
		}
		if p.Simultaneous && p.WindowMs <= 0 {
			return fmt.Errorf("puzzle %s: simultaneous requires positive windowMs", p.ID)
		}
	case PuzzleInfoSplit:
		src, ok := objects[p.SourcePanel]
		if !ok || src.Type != TypePanel {
			return fmt.Errorf("puzzle %s: sourcePanel %q is not a panel", p.ID, p.SourcePanel)
		}
		if p.TargetConsole != p.SourcePanel {
			dst, ok := objects[p.TargetConsole]
			if !ok || dst.Type != TypeConsole {
				return fmt.Errorf("puzzle %s: targetConsole %q is not a console", p.ID, p.TargetConsole)
			}
		}
	case PuzzleSequence:
		if len(p.Order) == 0 {
			return fmt.Errorf("puzzle %s: empty order list", p.ID)
		}
		for _, id := range p.Order {
			if _, ok := objects[id]; !ok {
				return fmt.Errorf("puzzle %s: order references unknown object %q", p.ID, id)
			}
		}
		if p.ResetOnError && p.LockMs <= 0 {
			return fmt.Errorf("puzzle %s: resetOnError requires positive lockMs", p.ID)
		}
	case PuzzleWeightPlate:
		if len(p.Plates) == 0 {
			return fmt.Errorf("puzzle %s: empty plates list", p.ID)
		}
		for _, plate := range p.Plates {
			obj, ok := objects[plate.ID]
			if !ok || obj.Type != TypeWeightPlate {
				return fmt.Errorf("puzzle %s: plate %q is not a weightPlate object", p.ID, plate.ID)
			}
		}
	}
	return nil
}
