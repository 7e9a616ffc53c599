// Package scenic runs a scene driver: a process that receives drawing
// scripts from a host over a length-prefixed pipe, renders them with a GPU
// or software backend and reports input and status back.
//
// # Basic Usage
//
//	d, err := scenic.New("/path/to/driver.lua", nil)
//	if err != nil {
//		log.Fatal(err)
//	}
//	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
//	defer stop()
//	if err := d.Run(ctx); err != nil {
//		log.Fatal(err)
//	}
//
// The host writes commands to the driver's stdin and reads messages from
// its stdout; logs never go to stdout. Use Options.In and Options.Out to
// serve another pipe.
//
// # Configuration Sources
//
//   - Disk file: [New] loads a Lua file, or the defaults for an empty path
//   - Embedded FS: [NewFromFS] loads from an [io/fs.FS]
//   - io.Reader: [NewFromReader] for generated configuration
//
// Options.Override runs after the file, which is how command-line flags
// take precedence. With Options.WatchConfig a changed file is re-read and
// its runtime settings are applied without a restart.
//
// # Threads
//
// With the GPU backend, [Driver.Run] must be called from the main
// goroutine: it runs the window there and the protocol loop on another
// goroutine. [Driver.Stop], [Driver.Status] and [Driver.Health] are safe
// from any goroutine.
//
// # Errors
//
// Errors returned by Run are [*CategorizedError] values. A crash command
// from the host yields an error matching [ErrCrash]; a closed pipe yields a
// fatal transport error.
package scenic
