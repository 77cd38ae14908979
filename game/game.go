// Package game is the desktop board where a human plays against a bot.
package game

import (
	"fmt"
	"image/color"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"losingChess/bots"
	"losingChess/match"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/text"
	"github.com/notnil/chess"
	"github.com/rs/zerolog/log"
	"golang.org/x/image/font/basicfont"
)

const (
	infoHeight = 80
	minSquare  = 48
)

var (
	lightColor     = color.RGBA{240, 217, 181, 255}
	darkColor      = color.RGBA{181, 136, 99, 255}
	highlightColor = color.RGBA{246, 246, 105, 160}
	whiteFill      = color.RGBA{250, 250, 245, 255}
	blackFill      = color.RGBA{40, 40, 40, 255}
)

type Game struct {
	match     *match.Match
	opponents []bots.ChessBot
	botIndex  int
	moveDelay time.Duration

	screenWidth  int
	screenHeight int
	squareSize   int
	boardOffsetX int
	boardOffsetY int

	pieces    map[chess.Piece]*ebiten.Image
	lightSq   *ebiten.Image
	darkSq    *ebiten.Image
	highlight *ebiten.Image

	started      bool
	selected     chess.Square
	dragging     *chess.Piece
	dragX, dragY int

	msgMu   sync.Mutex
	message string

	botPending atomic.Bool
}

// New builds the board. opponents must not be empty; the first one starts.
func New(cfg bots.Config, opponents []bots.ChessBot) *Game {
	w, h := ebiten.ScreenSizeInFullscreen()
	if w == 0 || h == 0 {
		w, h = 800, 800
	}
	boardHeight := h - infoHeight
	squareSize := boardHeight / 8
	if w/8 < squareSize {
		squareSize = w / 8
	}
	if squareSize < minSquare {
		squareSize = minSquare
	}
	g := &Game{
		match:        match.New(opponents[0], chess.White),
		opponents:    opponents,
		moveDelay:    cfg.MoveDelay(),
		screenWidth:  w,
		screenHeight: h,
		squareSize:   squareSize,
		boardOffsetX: (w - squareSize*8) / 2,
		boardOffsetY: (h - squareSize*8) / 2,
		selected:     chess.NoSquare,
	}
	g.loadImages()
	return g
}

func (g *Game) ScreenSize() (int, int) {
	return g.screenWidth, g.screenHeight
}

func (g *Game) loadImages() {
	size := g.squareSize
	g.lightSq = ebiten.NewImage(size, size)
	g.lightSq.Fill(lightColor)
	g.darkSq = ebiten.NewImage(size, size)
	g.darkSq.Fill(darkColor)
	g.highlight = ebiten.NewImage(size, size)
	g.highlight.Fill(highlightColor)

	g.pieces = make(map[chess.Piece]*ebiten.Image)
	for _, c := range []chess.Color{chess.White, chess.Black} {
		for _, pt := range []chess.PieceType{chess.King, chess.Queen, chess.Rook, chess.Bishop, chess.Knight, chess.Pawn} {
			p := chess.NewPiece(pt, c)
			g.pieces[p] = pieceImage(p, size)
		}
	}
}

// pieceImage draws a token with the piece letter, since the board ships
// without sprite assets.
func pieceImage(p chess.Piece, size int) *ebiten.Image {
	fill, ink := color.Color(whiteFill), color.Color(blackFill)
	if p.Color() == chess.Black {
		fill, ink = blackFill, whiteFill
	}
	margin := size / 6
	img := ebiten.NewImage(size, size)
	border := ebiten.NewImage(size-2*margin+4, size-2*margin+4)
	border.Fill(ink)
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Translate(float64(margin-2), float64(margin-2))
	img.DrawImage(border, op)

	body := ebiten.NewImage(size-2*margin, size-2*margin)
	body.Fill(fill)
	op = &ebiten.DrawImageOptions{}
	op.GeoM.Translate(float64(margin), float64(margin))
	img.DrawImage(body, op)

	label := ebiten.NewImage(8, 14)
	text.Draw(label, strings.ToUpper(p.Type().String()), basicfont.Face7x13, 0, 11, ink)
	scale := float64(size) / 28
	op = &ebiten.DrawImageOptions{}
	op.GeoM.Scale(scale, scale)
	op.GeoM.Translate(float64(size)/2-4*scale, float64(size)/2-7*scale)
	img.DrawImage(label, op)
	return img
}

func (g *Game) Update() error {
	if !g.started {
		g.updateColorChoice()
		return nil
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyB) {
		g.nextBot()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyR) {
		if err := g.match.Reset(g.match.Human()); err != nil {
			g.setMessage(err.Error())
		} else {
			g.started = false
		}
		return nil
	}

	g.updateHumanMove()

	if g.match.BotToMove() && g.botPending.CompareAndSwap(false, true) {
		go g.playBot()
	}
	return nil
}

func (g *Game) updateColorChoice() {
	if !inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		return
	}
	x, y := ebiten.CursorPosition()
	btnWidth, btnHeight := 200, 60
	btnY := g.screenHeight/2 + 100
	if y <= btnY || y >= btnY+btnHeight {
		return
	}
	var human chess.Color
	switch {
	case x > g.screenWidth/2-btnWidth-20 && x < g.screenWidth/2-20:
		human = chess.White
	case x > g.screenWidth/2+20 && x < g.screenWidth/2+20+btnWidth:
		human = chess.Black
	default:
		return
	}
	if err := g.match.Reset(human); err != nil {
		g.setMessage(err.Error())
		return
	}
	g.setMessage("")
	g.started = true
}

func (g *Game) updateHumanMove() {
	pos := g.match.Position()
	human := g.match.Human()
	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) && pos.Turn() == human {
		if sq, ok := g.squareAt(ebiten.CursorPosition()); ok {
			piece := pos.Board().Piece(sq)
			if piece != chess.NoPiece && piece.Color() == human {
				g.selected = sq
				g.dragging = &piece
			}
		}
	}
	if g.dragging != nil {
		g.dragX, g.dragY = ebiten.CursorPosition()
	}
	if inpututil.IsMouseButtonJustReleased(ebiten.MouseButtonLeft) && g.dragging != nil {
		if target, ok := g.squareAt(ebiten.CursorPosition()); ok && target != g.selected {
			if _, err := g.match.PlayHuman(g.selected, target); err != nil {
				g.setMessage(err.Error())
			} else {
				g.setMessage("")
			}
		}
		g.selected = chess.NoSquare
		g.dragging = nil
	}
}

func (g *Game) playBot() {
	defer g.botPending.Store(false)
	time.Sleep(g.moveDelay)
	if _, err := g.match.PlayBot(); err != nil {
		g.setMessage(err.Error())
	}
}

func (g *Game) nextBot() {
	next := (g.botIndex + 1) % len(g.opponents)
	if err := g.match.SetBot(g.opponents[next]); err != nil {
		g.setMessage(err.Error())
		return
	}
	g.botIndex = next
}

func (g *Game) setMessage(msg string) {
	g.msgMu.Lock()
	g.message = msg
	g.msgMu.Unlock()
}

func (g *Game) getMessage() string {
	g.msgMu.Lock()
	defer g.msgMu.Unlock()
	return g.message
}

// flipped reports whether black is drawn at the bottom.
func (g *Game) flipped() bool {
	return g.match.Human() == chess.Black
}

func (g *Game) squareAt(x, y int) (chess.Square, bool) {
	x -= g.boardOffsetX
	y -= g.boardOffsetY
	if x < 0 || y < 0 || x >= g.squareSize*8 || y >= g.squareSize*8 {
		return chess.NoSquare, false
	}
	file, rank := x/g.squareSize, 7-y/g.squareSize
	if g.flipped() {
		file, rank = 7-file, 7-rank
	}
	return chess.Square(file + rank*8), true
}

func (g *Game) squareOrigin(sq chess.Square) (float64, float64) {
	file, row := int(sq.File()), 7-int(sq.Rank())
	if g.flipped() {
		file, row = 7-file, 7-row
	}
	return float64(file*g.squareSize + g.boardOffsetX), float64(row*g.squareSize + g.boardOffsetY)
}

func (g *Game) Draw(screen *ebiten.Image) {
	st := g.match.Status()
	ebitenutil.DebugPrintAt(screen, "Bot: "+st.Bot+"  [B] switch  [R] restart", 20, g.screenHeight-40)

	if !g.started {
		g.drawColorChoice(screen)
		return
	}

	for sq := chess.A1; sq <= chess.H8; sq++ {
		img := g.lightSq
		if (int(sq.File())+int(sq.Rank()))%2 == 0 {
			img = g.darkSq
		}
		x, y := g.squareOrigin(sq)
		op := &ebiten.DrawImageOptions{}
		op.GeoM.Translate(x, y)
		screen.DrawImage(img, op)
		if sq == g.selected {
			screen.DrawImage(g.highlight, op)
		}
	}

	board := g.match.Position().Board()
	for sq, piece := range board.SquareMap() {
		if g.dragging != nil && sq == g.selected {
			continue
		}
		x, y := g.squareOrigin(sq)
		op := &ebiten.DrawImageOptions{}
		op.GeoM.Translate(x, y)
		screen.DrawImage(g.pieces[piece], op)
	}

	if g.dragging != nil {
		op := &ebiten.DrawImageOptions{}
		op.GeoM.Translate(float64(g.dragX)-float64(g.squareSize)/2, float64(g.dragY)-float64(g.squareSize)/2)
		screen.DrawImage(g.pieces[*g.dragging], op)
	}

	status := "Your move"
	switch {
	case st.Outcome != string(chess.NoOutcome):
		status = fmt.Sprintf("Result: %s (%s)", st.Outcome, st.Method)
	case st.Searching || g.botPending.Load():
		status = "Bot is thinking..."
	case st.Turn != st.Human:
		status = "Bot to move"
	}
	ebitenutil.DebugPrintAt(screen, status, 20, 20)
	ebitenutil.DebugPrintAt(screen, "Phase: "+st.Phase, 20, 36)
	if msg := g.getMessage(); msg != "" {
		ebitenutil.DebugPrintAt(screen, msg, g.screenWidth/2-100, 20)
	}
}

func (g *Game) drawColorChoice(screen *ebiten.Image) {
	ebitenutil.DebugPrintAt(screen, "Losing chess", g.screenWidth/2-40, g.screenHeight/2-50)
	ebitenutil.DebugPrintAt(screen, "Pick your colour:", g.screenWidth/2-55, g.screenHeight/2)

	whiteBtn := ebiten.NewImage(200, 60)
	whiteBtn.Fill(color.RGBA{200, 200, 200, 255})
	text.Draw(whiteBtn, "Play white", basicfont.Face7x13, 65, 35, blackFill)
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Translate(float64(g.screenWidth/2-220), float64(g.screenHeight/2+100))
	screen.DrawImage(whiteBtn, op)

	blackBtn := ebiten.NewImage(200, 60)
	blackBtn.Fill(color.RGBA{50, 50, 50, 255})
	ebitenutil.DebugPrintAt(blackBtn, "Play black", 65, 22)
	op = &ebiten.DrawImageOptions{}
	op.GeoM.Translate(float64(g.screenWidth/2+20), float64(g.screenHeight/2+100))
	screen.DrawImage(blackBtn, op)
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return g.screenWidth, g.screenHeight
}

// Run opens the window and blocks until it is closed.
func Run(cfg bots.Config, opponents []bots.ChessBot) error {
	g := New(cfg, opponents)
	w, h := g.ScreenSize()
	ebiten.SetWindowSize(w, h)
	ebiten.SetWindowTitle("Losing chess")
	ebiten.SetWindowResizable(true)
	log.Info().Int("width", w).Int("height", h).Str("bot", opponents[0].Name()).Msg("board-open")
	return ebiten.RunGame(g)
}
