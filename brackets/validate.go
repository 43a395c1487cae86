package brackets

import (
	"fmt"

	"github.com/Dosada05/debate-tab/models"
)

// ValidateAllocation checks the hard constraints: every non-bye room has at
// least one judge and exactly one chair, no judge sits twice on a panel, and
// no judge is conflicted with the room's teams. A judge may sit in two rooms
// only in a shared allocation.
func ValidateAllocation(rooms []Room, judges []*models.Participation, alloc *Allocation) error {
	if alloc == nil {
		return fmt.Errorf("%w: allocation is nil", ErrAllocationInvalid)
	}
	judgeByID := make(map[int]*models.Participation, len(judges))
	for _, j := range judges {
		if j != nil {
			judgeByID[j.ID] = j
		}
	}
	roomByID := make(map[int]Room, len(rooms))
	for _, r := range rooms {
		roomByID[r.PairingID] = r
	}

	seated := make(map[int]int)
	covered := make(map[int]bool, len(alloc.Panels))
	for _, panel := range alloc.Panels {
		room, ok := roomByID[panel.PairingID]
		if !ok {
			return fmt.Errorf("%w: panel for unknown pairing %d", ErrAllocationInvalid, panel.PairingID)
		}
		if covered[panel.PairingID] {
			return fmt.Errorf("%w: pairing %d has two panels", ErrAllocationInvalid, panel.PairingID)
		}
		covered[panel.PairingID] = true

		if err := validatePanel(room, panel.Judges, judgeByID); err != nil {
			return err
		}
		for _, a := range panel.Judges {
			if other, dup := seated[a.JudgeID]; dup && !alloc.Shared {
				return fmt.Errorf("%w: judge %d seated on pairings %d and %d",
					ErrAllocationInvalid, a.JudgeID, other, panel.PairingID)
			}
			seated[a.JudgeID] = panel.PairingID
		}
	}

	for _, r := range rooms {
		if !r.Bye && !covered[r.PairingID] {
			return fmt.Errorf("%w: pairing %d has no judges", ErrAllocationInvalid, r.PairingID)
		}
	}
	return nil
}

// ValidatePanel checks a single pairing's judges.
func ValidatePanel(room Room, assignments []Assignment, judges []*models.Participation) error {
	judgeByID := make(map[int]*models.Participation, len(judges))
	for _, j := range judges {
		if j != nil {
			judgeByID[j.ID] = j
		}
	}
	return validatePanel(room, assignments, judgeByID)
}

func validatePanel(room Room, assignments []Assignment, judgeByID map[int]*models.Participation) error {
	if room.Bye {
		if len(assignments) > 0 {
			return fmt.Errorf("%w: bye pairing %d has judges", ErrAllocationInvalid, room.PairingID)
		}
		return nil
	}
	if len(assignments) == 0 {
		return fmt.Errorf("%w: pairing %d has no judges", ErrAllocationInvalid, room.PairingID)
	}
	chairs := 0
	onPanel := make(map[int]bool, len(assignments))
	for _, a := range assignments {
		judge, ok := judgeByID[a.JudgeID]
		if !ok || judge.Role != models.RoleJudge {
			return fmt.Errorf("%w: participation %d is not a registered judge", ErrAllocationInvalid, a.JudgeID)
		}
		if onPanel[a.JudgeID] {
			return fmt.Errorf("%w: judge %d appears twice on pairing %d", ErrAllocationInvalid, a.JudgeID, room.PairingID)
		}
		onPanel[a.JudgeID] = true
		if Conflicted(judge, room) {
			return fmt.Errorf("%w: judge %d is conflicted with pairing %d", ErrAllocationInvalid, a.JudgeID, room.PairingID)
		}
		if a.Chair {
			chairs++
		}
	}
	if chairs != 1 {
		return fmt.Errorf("%w: pairing %d has %d chairs", ErrAllocationInvalid, room.PairingID, chairs)
	}
	return nil
}
