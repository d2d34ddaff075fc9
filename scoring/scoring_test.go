package scoring

import "testing"

func TestCalculate(t *testing.T) {
	tests := []struct {
		name            string
		timerMs         int64
		totalDurationMs int64
		hintsUsed       int
		errors          int
		roomsCompleted  int
		totalRooms      int
		wantScore       int
		wantRank        Rank
	}{
		{
			name:    "perfect run",
			timerMs: 1800000, totalDurationMs: 1800000,
			roomsCompleted: 3, totalRooms: 3,
			wantScore: 180, wantRank: RankS,
		},
		{
			name:    "half time with penalties",
			timerMs: 900000, totalDurationMs: 1800000,
			hintsUsed: 1, errors: 2,
			roomsCompleted: 3, totalRooms: 3,
			// 100 + 25 + 30 - 10 - 4
			wantScore: 141, wantRank: RankS,
		},
		{
			name:    "timeout with partial progress",
			timerMs: 0, totalDurationMs: 1800000,
			hintsUsed: 2, errors: 5,
			roomsCompleted: 1, totalRooms: 3,
			// 100 + 0 + 10 - 20 - 10
			wantScore: 80, wantRank: RankC,
		},
		{
			name:    "heavy hint use floors at zero",
			timerMs: 0, totalDurationMs: 1800000,
			hintsUsed: 20, errors: 0,
			roomsCompleted: 0, totalRooms: 3,
			wantScore: 0, wantRank: RankD,
		},
		{
			name:    "no rooms declared",
			timerMs: 600000, totalDurationMs: 1800000,
			roomsCompleted: 0, totalRooms: 0,
			// 100 + 16 + 0
			wantScore: 116, wantRank: RankB,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := CalculateDefault(tt.timerMs, tt.totalDurationMs, tt.hintsUsed, tt.errors, tt.roomsCompleted, tt.totalRooms)
			if b.FinalScore != tt.wantScore {
				t.Errorf("FinalScore = %d, want %d", b.FinalScore, tt.wantScore)
			}
			if b.Rank != tt.wantRank {
				t.Errorf("Rank = %s, want %s", b.Rank, tt.wantRank)
			}
		})
	}
}

func TestCalculate_RankThresholds(t *testing.T) {
	ranks := []struct {
		score int
		want  Rank
	}{
		{140, RankS},
		{139, RankA},
		{120, RankA},
		{119, RankB},
		{100, RankB},
		{99, RankC},
		{80, RankC},
		{79, RankD},
		{0, RankD},
	}

	for _, r := range ranks {
		// Drive the final score through the error penalty with unit cost,
		// starting from the 180-point maximum.
		b := Calculate(1800000, 1800000, 0, 180-r.score, 3, 3, 0, 1)
		if b.FinalScore != r.score {
			t.Fatalf("setup error: got score %d, want %d", b.FinalScore, r.score)
		}
		if b.Rank != r.want {
			t.Errorf("score %d: Rank = %s, want %s", r.score, b.Rank, r.want)
		}
	}
}

func TestFormatTime(t *testing.T) {
	tests := []struct {
		ms   int64
		want string
	}{
		{0, "00:00"},
		{999, "00:00"},
		{1000, "00:01"},
		{61000, "01:01"},
		{600000, "10:00"},
		{1800000, "30:00"},
	}

	for _, tt := range tests {
		if got := FormatTime(tt.ms); got != tt.want {
			t.Errorf("FormatTime(%d) = %q, want %q", tt.ms, got, tt.want)
		}
	}
}
