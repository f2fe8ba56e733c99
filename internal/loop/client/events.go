package client

import (
	"context"
	"errors"
	"fmt"

	"github.com/tomz197/flappysavon/internal/game"
	"github.com/tomz197/flappysavon/internal/scores"
)

// flap forwards a tap to the game and tracks playthrough boundaries.
func (c *Client) flap() {
	before := c.game.State()
	c.game.Flap()

	switch {
	case before == game.StateDead:
		// The tap restarted the game; the next one starts the playthrough.
		c.state.ShowBoard = false
	case before == game.StateIdle && c.game.Alive():
		c.state.reminder = false
		c.tracker.GameStart(c.profile.Registered(), c.profile.Best)
		c.server.ReportScore(c.handle.ID, 0, true)
	}
}

// onScore handles a passed pipe.
func (c *Client) onScore(score int) {
	c.profile.Points += c.cfg.Scoring.PointsPerPipe

	for _, b := range c.lookup.BadgesAt(score) {
		if c.profile.AddBadge(b.Name) {
			c.toast("Badge débloqué: " + b.Name)
			c.game.Particles().SpawnConfetti()
			c.saveProfile()
		}
	}

	c.updateLiveRank()
	c.server.ReportScore(c.handle.ID, score, true)
}

// onDead ends the playthrough, updates the profile and submits the score.
func (c *Client) onDead(score int) {
	c.game.Die()

	previousBest := c.profile.Best
	c.profile.Best = max(c.profile.Best, score)
	if score > previousBest && score > 0 {
		c.game.Particles().SpawnConfetti()
		c.toast("Nouveau record !")
	}

	c.profile.Games++
	if !c.profile.Registered() && c.profile.Games >= c.cfg.UI.ReminderAfterGames {
		c.state.reminder = true
	}
	c.saveProfile()

	c.state.ShowBoard = false
	c.server.ReportScore(c.handle.ID, score, false)
	c.tracker.GameEnd(score, c.profile.Email, c.profile.Pseudo)
	c.submit(score)
}

// submit posts the result in the background. Only the store call leaves the
// loop goroutine; its completion is posted back through c.completions.
func (c *Client) submit(score int) {
	result := scores.Result{
		Pseudo: c.profile.Pseudo,
		Email:  c.profile.Email,
		Optin:  c.profile.Registered(),
		Score:  score,
		Points: c.profile.Points,
		Best:   c.profile.Best,
		Badges: c.profile.Badges,
	}
	err := c.submitter.Submit(context.Background(), c.session, result, func(err error) {
		if err != nil && !errors.Is(err, scores.ErrNoEmail) {
			return
		}
		c.post(func() {
			c.state.awaitingRank = true
			c.server.RequestRefresh()
		})
	})
	if err != nil {
		c.logger.Debug("score not submitted", "score", score, "err", err)
	}
}

// onLeaderboard reacts to a new shared leaderboard.
func (c *Client) onLeaderboard(version int) {
	if version <= c.state.boardVersion {
		return
	}
	c.state.boardVersion = version
	c.updateLiveRank()

	if !c.state.awaitingRank {
		return
	}
	c.state.awaitingRank = false
	if c.state.rank > 0 {
		c.state.showRank(rankText(c.state.rank), c.now(), c.cfg.UI.RankDisplayDuration)
	}
}

// updateLiveRank recomputes the rank from the cached leaderboard.
func (c *Client) updateLiveRank() {
	rows := c.server.GetSnapshot().Leaderboard
	if rows == nil {
		return
	}
	if rank, ok := scores.ComputeRank(rows, c.profile.Email, c.profile.Best); ok {
		c.state.rank = rank
	}
}

// rankText is the post-game rank bubble, with a podium line for the top 3.
func rankText(rank int) string {
	switch rank {
	case 1:
		return "1ère place !"
	case 2:
		return "2ème place !"
	case 3:
		return "3ème place !"
	}
	return fmt.Sprintf("Classement: #%d", rank)
}

// nextSkin equips the next skin unlocked by the player's best score.
func (c *Client) nextSkin() {
	skin := c.lookup.NextSkin(c.profile.Skin, c.profile.Best)
	if skin.ID == c.profile.Skin {
		c.toast("Aucun autre skin débloqué")
		return
	}
	c.profile.Skin = skin.ID
	c.saveProfile()
	c.toast("Skin: " + skin.Name)
}

// toggleMute flips the sound and remembers the choice.
func (c *Client) toggleMute() {
	muted := c.sounds.ToggleMute()
	c.profile.Muted = muted
	c.saveProfile()
	if muted {
		c.toast("Son coupé")
	} else {
		c.toast("Son activé")
	}
}

func (c *Client) toast(text string) {
	c.state.showToast(text, c.now(), c.cfg.UI.ToastDuration)
}

func (c *Client) saveProfile() {
	if err := c.profiles.Save(c.profileKey, c.profile); err != nil {
		c.logger.Warn("profile not saved", "err", err)
	}
}
