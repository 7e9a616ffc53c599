package main

import (
	"context"
	"io"
	"math"
	"time"

	"github.com/opd-ai/go-scenic/internal/driver"
	"github.com/opd-ai/go-scenic/internal/render"
	"github.com/opd-ai/go-scenic/internal/script"
)

var (
	demoBackground = render.Color{R: 0x1d, G: 0x1f, B: 0x21, A: 0xff}
	demoAccent     = render.Color{R: 0x81, G: 0xa2, B: 0xbe, A: 0xff}
	demoWarm       = render.Color{R: 0xde, G: 0x93, B: 0x5f, A: 0xff}
	demoText       = render.Color{R: 0xc5, G: 0xc8, B: 0xc6, A: 0xff}
)

// demoSetup uploads the scripts that do not change between frames.
func demoSetup() *driver.Commands {
	badge := script.NewBuilder().
		FillLinear(0, 0, 120, 0, demoAccent, demoWarm).
		DrawRRect(120, 40, 8, script.FlagFill).
		Translate(60, 26).
		FillColor(demoBackground).
		TextAlign(render.AlignCenter).
		DrawText("scenic").
		Bytes()
	cursor := script.NewBuilder().
		StrokeColor(demoText).
		StrokeWidth(2).
		DrawCircle(6, script.FlagStroke).
		Bytes()

	return driver.NewCommands().
		ClearColor(demoBackground).
		PutScript("badge", badge).
		PutScript(driver.CursorScript, cursor)
}

// demoFrame draws frame n: a spinning sector, an orbiting dot and the
// badge script.
func demoFrame(c *driver.Commands, n int) *driver.Commands {
	a := float64(n) * 2 * math.Pi / 120
	root := script.NewBuilder().
		PushState().
		Translate(200, 150).
		Rotate(a).
		FillColor(demoAccent).
		DrawSector(80, math.Pi/2, script.FlagFill).
		StrokeColor(demoText).
		StrokeWidth(3).
		LineCap(render.CapRound).
		DrawArc(96, 3*math.Pi/2, script.FlagStroke).
		PopState().
		PushState().
		Translate(200+120*math.Cos(-a), 150+120*math.Sin(-a)).
		FillColor(demoWarm).
		DrawCircle(10, script.FlagFill).
		PopState().
		Translate(20, 20).
		DrawScript("badge").
		Bytes()

	x := 200 + 60*math.Cos(a*2)
	y := 150 + 60*math.Sin(a*2)
	return c.PutScript(driver.RootScript, root).
		UpdateCursor(true, float32(x), float32(y)).
		Render()
}

// feedDemo plays the demo scene into w, one frame per tick. With frames
// > 0 it sends quit after that many frames.
func feedDemo(ctx context.Context, w io.Writer, frames int, tick time.Duration) error {
	if _, err := w.Write(demoSetup().Bytes()); err != nil {
		return err
	}
	t := time.NewTicker(tick)
	defer t.Stop()
	for n := 0; frames <= 0 || n < frames; n++ {
		if _, err := w.Write(demoFrame(driver.NewCommands(), n).Bytes()); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
		}
	}
	_, err := w.Write(driver.NewCommands().Quit().Bytes())
	return err
}
