package repository

import "time"

func SetMessageClock(r *MessageRepository, now func() time.Time) {
	r.now = now
}
