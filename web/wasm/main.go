//go:build js && wasm

// Command wasm exposes a live mix session to the browser page as the global
// MixDesk object. The page decodes nothing itself: it hands file bytes to
// load, pulls rendered quanta with render(n) from its audio callback and
// sends parameter changes as JSON.
package main

import (
	"bytes"
	"context"
	"syscall/js"

	"github.com/cwbudde/mixdesk/dsp/graph"
	"github.com/cwbudde/mixdesk/internal/session"
	"github.com/cwbudde/mixdesk/mix"
)

var (
	sess  *session.Session
	funcs []js.Func
)

func main() {
	api := js.Global().Get("Object").New()

	api.Set("init", export(func(args []js.Value) any {
		sr := 48000.0
		if len(args) > 0 {
			sr = args[0].Float()
		}

		channels := 2
		if len(args) > 1 {
			channels = args[1].Int()
		}

		s, err := session.New(sr, session.WithChannels(channels))
		if err != nil {
			return err.Error()
		}

		if sess != nil {
			sess.Close()
		}

		sess = s

		return js.Null()
	}))

	// load(bytes: Uint8Array, done: (err: string|null) => void)
	api.Set("load", export(func(args []js.Value) any {
		if sess == nil || len(args) < 1 {
			return "not initialised"
		}

		data := make([]byte, args[0].Get("length").Int())
		js.CopyBytesToGo(data, args[0])

		done := sess.LoadAsync(context.Background(), bytes.NewReader(data))

		if len(args) > 1 && args[1].Type() == js.TypeFunction {
			cb := args[1]

			go func() {
				if err := <-done; err != nil {
					cb.Invoke(err.Error())
					return
				}

				cb.Invoke(js.Null())
			}()
		}

		return js.Null()
	}))

	// apply(json: string) applies one change, clamped like a UI control.
	api.Set("apply", export(func(args []js.Value) any {
		if sess == nil || len(args) < 1 {
			return "not initialised"
		}

		c, err := mix.UnmarshalChange([]byte(args[0].String()))
		if err != nil {
			return err.Error()
		}

		if err := sess.ApplyClamped(c); err != nil {
			return err.Error()
		}

		return js.Null()
	}))

	api.Set("play", export(func([]js.Value) any {
		if sess != nil {
			sess.Play()
		}

		return js.Null()
	}))

	api.Set("pause", export(func([]js.Value) any {
		if sess != nil {
			sess.Pause()
		}

		return js.Null()
	}))

	api.Set("scrub", export(func(args []js.Value) any {
		if sess != nil && len(args) > 0 {
			sess.Scrub(args[0].Float())
		}

		return js.Null()
	}))

	api.Set("progress", export(func([]js.Value) any {
		if sess == nil {
			return 0
		}

		return sess.Progress()
	}))

	api.Set("state", export(func([]js.Value) any {
		if sess == nil {
			return "stopped"
		}

		return sess.State().String()
	}))

	// render(n) returns n interleaved frames as a Float32Array.
	api.Set("render", export(func(args []js.Value) any {
		if sess == nil || len(args) < 1 {
			return js.Global().Get("Float32Array").New(0)
		}

		buf := make([]float32, args[0].Int()*sess.Channels())
		sess.Render(buf)

		return float32Array(buf)
	}))

	api.Set("reduction", export(func([]js.Value) any {
		out := make([]float32, mix.NumBands)

		if sess != nil {
			for _, b := range mix.Bands() {
				out[b] = float32(sess.MeterDB(b))
			}
		}

		return float32Array(out)
	}))

	api.Set("responseCurve", export(func(args []js.Value) any {
		if sess == nil || len(args) < 1 {
			return js.Global().Get("Float64Array").New(0)
		}

		input := args[0]
		freqs := make([]float64, input.Length())

		for i := range freqs {
			freqs[i] = input.Index(i).Float()
		}

		return float64Array(sess.FrequencyResponseDB(freqs))
	}))

	api.Set("spectrum", export(func(args []js.Value) any {
		if sess == nil {
			return js.Global().Get("Uint8Array").New(0)
		}

		out := make([]byte, 1024)
		sess.SpectrumBytes(out)

		return uint8Array(out)
	}))

	api.Set("spectrogram", export(func(args []js.Value) any {
		if sess == nil {
			return js.Global().Get("Uint8Array").New(0)
		}

		out := make([]byte, 256)
		sess.Spectrogram(out)

		return uint8Array(out)
	}))

	api.Set("waveform", export(func(args []js.Value) any {
		if sess == nil {
			return js.Global().Get("Uint8Array").New(0)
		}

		out := make([]byte, graph.SpectrumFFTSize)
		sess.WaveformBytes(out)

		return uint8Array(out)
	}))

	// exportWav(done: (wav: Uint8Array|null, err: string|null) => void)
	// renders the mix off the event loop and hands the WAVE bytes to done.
	api.Set("exportWav", export(func(args []js.Value) any {
		if sess == nil {
			return "not initialised"
		}

		if len(args) < 1 || args[0].Type() != js.TypeFunction {
			return "exportWav needs a callback"
		}

		cb := args[0]
		out := new(bytes.Buffer)
		done := sess.ExportAsync(out)

		go func() {
			if err := <-done; err != nil {
				cb.Invoke(js.Null(), err.Error())
				return
			}

			cb.Invoke(uint8Array(out.Bytes()), js.Null())
		}()

		return js.Null()
	}))

	api.Set("formatFrequency", export(func(args []js.Value) any {
		if len(args) < 1 {
			return ""
		}

		return mix.FormatFrequency(args[0].Float())
	}))

	js.Global().Set("MixDesk", api)
	select {}
}

func float32Array(v []float32) js.Value {
	arr := js.Global().Get("Float32Array").New(len(v))
	for i, x := range v {
		arr.SetIndex(i, x)
	}

	return arr
}

func float64Array(v []float64) js.Value {
	arr := js.Global().Get("Float64Array").New(len(v))
	for i, x := range v {
		arr.SetIndex(i, x)
	}

	return arr
}

func uint8Array(v []byte) js.Value {
	arr := js.Global().Get("Uint8Array").New(len(v))
	js.CopyBytesToJS(arr, v)

	return arr
}

func export(fn func([]js.Value) any) js.Func {
	f := js.FuncOf(func(_ js.Value, args []js.Value) any {
		return fn(args)
	})
	funcs = append(funcs, f)

	return f
}
