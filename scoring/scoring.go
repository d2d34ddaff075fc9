// Package scoring derives the final score and rank from session state.
// Everything here is deterministic and side-effect free.
package scoring

import "fmt"

// Rank 评级
type Rank string

const (
	RankS Rank = "S"
	RankA Rank = "A"
	RankB Rank = "B"
	RankC Rank = "C"
	RankD Rank = "D"
)

// 默认扣分参数
const (
	BaseScore        = 100
	DefaultHintCost  = 10
	DefaultErrorCost = 2
	maxTimeBonus     = 50
	maxRoomBonus     = 30
)

// Breakdown 计分明细
type Breakdown struct {
	BaseScore       int  `json:"baseScore"`
	TimeBonus       int  `json:"timeBonus"`
	CompletionBonus int  `json:"completionBonus"`
	HintPenalty     int  `json:"hintPenalty"`
	ErrorPenalty    int  `json:"errorPenalty"`
	FinalScore      int  `json:"finalScore"`
	Rank            Rank `json:"rank"`
}

// Calculate computes the score breakdown. Time remaining scales a bonus up
// to 50, rooms completed a bonus up to 30; hints and errors subtract at
// their per-unit cost; the floor is zero.
func Calculate(timerMs, totalDurationMs int64, hintsUsed, errors, roomsCompleted, totalRooms, hintCost, errorCost int) Breakdown {
	b := Breakdown{
		BaseScore:    BaseScore,
		HintPenalty:  hintsUsed * hintCost,
		ErrorPenalty: errors * errorCost,
	}
	if totalDurationMs > 0 {
		b.TimeBonus = int(timerMs * maxTimeBonus / totalDurationMs)
	}
	if totalRooms > 0 {
		b.CompletionBonus = roomsCompleted * maxRoomBonus / totalRooms
	}

	b.FinalScore = b.BaseScore + b.TimeBonus + b.CompletionBonus - b.HintPenalty - b.ErrorPenalty
	if b.FinalScore < 0 {
		b.FinalScore = 0
	}

	switch {
	case b.FinalScore >= 140:
		b.Rank = RankS
	case b.FinalScore >= 120:
		b.Rank = RankA
	case b.FinalScore >= 100:
		b.Rank = RankB
	case b.FinalScore >= 80:
		b.Rank = RankC
	default:
		b.Rank = RankD
	}
	return b
}

// CalculateDefault applies the default hint/error costs.
func CalculateDefault(timerMs, totalDurationMs int64, hintsUsed, errors, roomsCompleted, totalRooms int) Breakdown {
	return Calculate(timerMs, totalDurationMs, hintsUsed, errors, roomsCompleted, totalRooms, DefaultHintCost, DefaultErrorCost)
}

// FormatTime renders a millisecond countdown as mm:ss.
func FormatTime(ms int64) string {
	totalSeconds := ms / 1000
	return fmt.Sprintf("%02d:%02d", totalSeconds/60, totalSeconds%60)
}
