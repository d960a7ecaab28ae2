package bot

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"truthgoals/internal/notify"
)

// streakMilestones are the current-streak lengths that earn a notification
var streakMilestones = map[int]bool{3: true, 7: true, 30: true, 100: true, 365: true}

// withStreakCheck runs a progress write and adds a streak notification when
// the write extends the current streak onto a milestone
func (b *Bot) withStreakCheck(ctx context.Context, userID string, write func() error) error {
	before, beforeErr := b.tracker.Streak(ctx, userID)

	if err := write(); err != nil {
		return err
	}
	if beforeErr != nil {
		b.logger.Debug("Skipping streak check", zap.Error(beforeErr), zap.String("user_id", userID))
		return nil
	}

	after, err := b.tracker.Streak(ctx, userID)
	if err != nil {
		b.logger.Warn("Failed to read streak after update", zap.Error(err), zap.String("user_id", userID))
		return nil
	}

	if after.CurrentStreak > before.CurrentStreak && streakMilestones[after.CurrentStreak] {
		b.notifications.Add(userID, "Streak milestone",
			fmt.Sprintf("🔥 You have read %s in a row", days(after.CurrentStreak)), notify.TypeStreak)
		b.logger.Info("Streak milestone reached",
			zap.String("user_id", userID),
			zap.Int("streak", after.CurrentStreak),
		)
	}
	return nil
}
