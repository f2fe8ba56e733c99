package client

import (
	"fmt"
	"strings"
	"time"

	"github.com/tomz197/flappysavon/internal/draw"
	"github.com/tomz197/flappysavon/internal/game"
	loopconfig "github.com/tomz197/flappysavon/internal/loop/config"
	"github.com/tomz197/flappysavon/internal/loop/server"
	"github.com/tomz197/flappysavon/internal/scores"
)

var (
	inkLight  = draw.RGB(0xf4, 0xf7, 0xfb)
	inkDark   = draw.RGB(0x0e, 0x11, 0x16)
	inkAccent = draw.RGB(0xff, 0xd1, 0x9a)
	inkMuted  = draw.RGB(0x9a, 0xa7, 0xb4)
	panelBg   = draw.RGB(0x0b, 0x0f, 0x12)
	statusBg  = draw.RGB(0x15, 0x1b, 0x22)
)

// drawFrame draws the current frame.
func (c *Client) drawFrame() error {
	snapshot := c.server.GetSnapshot()

	c.renderer.Draw(c.canvas, c.game, c.profile.Skin)
	c.drawUI(snapshot)

	// Render canvas to terminal
	c.canvas.Render(c.chunkWriter)

	// Draw border when the terminal is wider or taller than the playfield
	c.canvas.RenderBorder(c.chunkWriter)

	c.drawStatusLine(snapshot)

	return c.chunkWriter.Flush()
}

// drawUI draws the overlays on top of the rendered scene.
func (c *Client) drawUI(snapshot *server.Snapshot) {
	if c.state.Screen == ScreenShutdown {
		c.drawShutdownScreen()
		return
	}
	if c.state.isInactive {
		c.drawInactivityScreen()
		return
	}

	c.drawHUD()
	if c.game.State() == game.StateDead {
		c.drawDeadDetails()
	}
	if c.state.ShowBoard {
		c.drawLeaderboard(snapshot)
	}
	c.drawToasts()
}

// drawHUD draws score, best, points and live rank.
func (c *Client) drawHUD() {
	cv := c.canvas
	w := cv.LogicalWidth()
	row := cv.TextRows()

	if c.game.State() != game.StateIdle {
		cv.Text(w/2, 30, fmt.Sprintf("%d", c.game.Score()), inkLight, draw.AlignCenter)
	}
	cv.Text(10, 10, fmt.Sprintf("Record %d", c.profile.Best), inkLight, draw.AlignLeft)
	cv.Text(10, 10+row, fmt.Sprintf("Points %d", c.profile.Points), inkMuted, draw.AlignLeft)

	if c.state.rank > 0 {
		label := fmt.Sprintf("#%d", c.state.rank)
		if !c.profile.Registered() {
			label += " (invité)"
		}
		cv.Text(w-10, 10, label, inkAccent, draw.AlignRight)
	}
}

// drawDeadDetails adds the final score and the guest reminder under the
// renderer's game over overlay.
func (c *Client) drawDeadDetails() {
	cv := c.canvas
	w, h := cv.LogicalWidth(), cv.LogicalHeight()
	row := max(cv.TextRows(), 22)

	y := h*0.5 + 2*row
	cv.Text(w/2, y, fmt.Sprintf("Score %d  ·  Record %d", c.game.Score(), c.profile.Best), inkLight, draw.AlignCenter)
	if c.state.reminder {
		cv.Text(w/2, y+row, "Joue avec un e-mail pour enregistrer tes scores", inkAccent, draw.AlignCenter)
	}
}

// drawLeaderboard draws the shared leaderboard panel.
func (c *Client) drawLeaderboard(snapshot *server.Snapshot) {
	cv := c.canvas
	w, h := cv.LogicalWidth(), cv.LogicalHeight()
	row := max(cv.TextRows(), 20)

	top := h * 0.18
	height := row * float64(scores.LeaderboardSize+3)
	cv.SetAlpha(0.9)
	cv.FillRoundRect(30, top, w-60, height, 14, draw.Solid(panelBg))
	cv.SetAlpha(1)

	cv.Text(w/2, top+row, "Classement", inkAccent, draw.AlignCenter)
	if snapshot.Leaderboard == nil {
		cv.Text(w/2, top+2*row, "Chargement...", inkMuted, draw.AlignCenter)
		return
	}
	if len(snapshot.Leaderboard) == 0 {
		cv.Text(w/2, top+2*row, "Aucun score pour l'instant", inkMuted, draw.AlignCenter)
		return
	}
	for i, e := range snapshot.Leaderboard {
		y := top + float64(i+2)*row
		ink := inkLight
		if c.profile.Email != "" && strings.EqualFold(e.Email, c.profile.Email) {
			ink = inkAccent
		}
		cv.Text(45, y, fmt.Sprintf("%2d. %s", i+1, displayName(e.Pseudo)), ink, draw.AlignLeft)
		cv.Text(w-45, y, fmt.Sprintf("%d", e.Value()), ink, draw.AlignRight)
	}
}

// drawToasts draws the current toast and the rank bubble.
func (c *Client) drawToasts() {
	now := c.now()
	cv := c.canvas
	w, h := cv.LogicalWidth(), cv.LogicalHeight()
	row := max(cv.TextRows(), 20)

	if text, ok := c.state.Toast(now); ok {
		c.drawPill(w/2, h*0.82, text, row)
	}
	if text, ok := c.state.RankToast(now); ok {
		c.drawPill(w/2, h*0.82-1.5*row, text, row)
	}
}

// drawPill draws text centred on a rounded dark band.
func (c *Client) drawPill(cx, cy float64, text string, row float64) {
	cv := c.canvas
	if cv.Scale() == 0 {
		return
	}
	pad := 12.0
	tw := float64(len([]rune(text))) / cv.Scale()
	cv.SetAlpha(0.8)
	cv.FillRoundRect(cx-tw/2-pad, cy-row/2, tw+2*pad, row*1.2, row/2, draw.Solid(inkDark))
	cv.SetAlpha(1)
	cv.Text(cx, cy, text, inkLight, draw.AlignCenter)
}

// drawInactivityScreen draws the inactivity warning screen.
func (c *Client) drawInactivityScreen() {
	now := c.now()
	left := int(loopconfig.InactivityDisconnectUser - now.Sub(c.lastInput).Seconds())
	hint := ""
	if blink(now) {
		hint = "Appuie sur une touche pour continuer"
	}
	c.drawPanel("INACTIF",
		"Tu vas être déconnecté",
		fmt.Sprintf("dans %d secondes.", max(left, 0)),
		"",
		hint)
}

// drawShutdownScreen draws the server shutdown notification screen.
func (c *Client) drawShutdownScreen() {
	remaining := int(c.state.shutdownTimer) + 1
	c.drawPanel("ARRÊT DU SERVEUR",
		"Le serveur redémarre.",
		"Reviens dans un instant !",
		fmt.Sprintf("Déconnexion dans %d s...", remaining),
		"Q pour quitter maintenant")
}

// drawPanel draws a title and lines on a dark panel in the middle of the canvas.
func (c *Client) drawPanel(title string, lines ...string) {
	cv := c.canvas
	w, h := cv.LogicalWidth(), cv.LogicalHeight()
	row := max(cv.TextRows(), 22)

	height := row * float64(len(lines)+3)
	top := h/2 - height/2
	cv.SetAlpha(0.92)
	cv.FillRoundRect(20, top, w-40, height, 16, draw.Solid(panelBg))
	cv.SetAlpha(1)

	cv.Text(w/2, top+row, title, inkAccent, draw.AlignCenter)
	for i, line := range lines {
		cv.Text(w/2, top+float64(i+2)*row+row/2, line, inkLight, draw.AlignCenter)
	}
}

// drawStatusLine draws the player count, the live top scores and the key
// hints on the terminal row under the canvas. Fields use fixed-width
// formatting so shrinking values don't leave residual characters on screen.
func (c *Client) drawStatusLine(snapshot *server.Snapshot) {
	if c.termHeight < 2 {
		return
	}
	var b strings.Builder
	fmt.Fprintf(&b, " Joueurs: %-4d", snapshot.Players)
	for _, ls := range snapshot.Live {
		fmt.Fprintf(&b, " %s %d ", displayName(ls.Username), ls.Score)
	}
	b.WriteString(" │ espace saut · p pause · s skin · m son · l classement · q quitter")

	line := []rune(b.String())
	if len(line) > c.termWidth {
		line = line[:c.termWidth]
	}
	text := string(line) + strings.Repeat(" ", c.termWidth-len(line))
	if text == c.lastStatus {
		return
	}
	c.lastStatus = text
	c.chunkWriter.WriteStyled(1, c.termHeight, text, inkMuted, statusBg)
}

// displayName caps a name at the hub's display length.
func displayName(name string) string {
	if name == "" {
		return scores.DefaultPseudo
	}
	r := []rune(name)
	if len(r) > loopconfig.MaxUsernameLength {
		return string(r[:loopconfig.MaxUsernameLength])
	}
	return name
}

// blink reports the on phase of a 1.2 s blink.
func blink(now time.Time) bool {
	return now.UnixMilli()/600%2 == 0
}
