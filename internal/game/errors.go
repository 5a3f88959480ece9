package game

import "errors"

// Rejected actions. The state is returned unchanged alongside any of these.
var (
	ErrNotLoaded      = errors.New("game: dictionary not loaded")
	ErrNotPlaying     = errors.New("game: run is not in progress")
	ErrRunActive      = errors.New("game: run already in progress")
	ErrDailyLocked    = errors.New("game: daily already played")
	ErrIncomplete     = errors.New("game: stage incomplete")
	ErrInvalidWord    = errors.New("game: not a playable word")
	ErrDuplicateWord  = errors.New("game: word already used")
	ErrNoCharges      = errors.New("game: not enough reroll charges")
	ErrRerollDisabled = errors.New("game: rerolls disabled by modifier")
	ErrNoAnagram      = errors.New("game: rack has no playable arrangement")
	ErrUnknownAction  = errors.New("game: unknown action")
)

var messages = map[error]string{
	ErrNotLoaded:      "Word list is still loading",
	ErrNotPlaying:     "No run in progress",
	ErrRunActive:      "Run already in progress",
	ErrDailyLocked:    "Daily already played today",
	ErrIncomplete:     "Fill all 5 stage slots first",
	ErrInvalidWord:    "Not in the playable list",
	ErrDuplicateWord:  "Word already used in this run",
	ErrNoCharges:      "Not enough reroll charges",
	ErrRerollDisabled: "Re-roll and Auto Fill are disabled today",
	ErrNoAnagram:      "No word fits this rack",
	ErrUnknownAction:  "Unknown action",
}

// Message returns player-facing text for a rejection, or "" for nil.
func Message(err error) string {
	if err == nil {
		return ""
	}
	for target, msg := range messages {
		if errors.Is(err, target) {
			return msg
		}
	}
	return err.Error()
}
