// Package coordinator opens a fixed set of documents in an external tool and
// shuts the process down once the tool reports that every instance is gone.
//
// # Lifecycle
//
// [Initialize] creates one instance per source, in order. Only when every
// creation succeeded does it attach, to each instance, the shared close
// command and a deletion listener. Picking the command in any instance calls
// [Coordinator.CloseAll], which deletes every instance of the set.
//
//	c, err := coordinator.Initialize(tool, []string{"doc_en.txt", "doc_fr.txt"}, coordinator.Options{
//	    OnTerminate: func(code int) { exit <- code },
//	    Logger:      logger,
//	})
//	if err != nil {
//	    _ = c.Abandon()
//	    return err
//	}
//	<-c.Done()
//
// # Shutdown Condition
//
// Each deletion notification triggers a check of the tool's live instance
// count. The count is process-wide: if instances outside this coordinator's
// set are still open, the process keeps running even after all of its own
// instances are gone, and a deletion outside the set can be the one that
// triggers termination.
//
// # Concurrency
//
// The coordinator starts no goroutines. Its state is guarded by a mutex, and
// calls into the tool that may re-enter it (Delete) are made without holding
// that mutex.
package coordinator
