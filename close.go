package lexigo

// Close waits for in-flight transactions and open snapshots, then closes the
// storage engine. Later operations fail with ErrClosed. Close is idempotent.
func (db *Lexigo[T]) Close() error {
	if db == nil {
		return nil
	}
	db.closeOnce.Do(func() {
		db.closeErr = translateError(db.kv.Close())
		db.logger.Info("database closed", "error", db.closeErr)
	})
	return db.closeErr
}
