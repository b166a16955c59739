package form

// Channel names a stream of search requests whose responses may race.
type Channel string

// Search channels.
const (
	ChannelStudents Channel = "students"
	ChannelBooks    Channel = "books"
	ChannelCopies   Channel = "copies"
)

// Token identifies one issued search request.
type Token struct {
	Channel Channel
	Seq     uint64
}

// Sequencer hands out increasing tokens per channel so that a late response
// to an old query can be recognized and dropped. It is owned by the UI event
// loop and is not safe for concurrent use.
type Sequencer struct {
	latest map[Channel]uint64
}

// Next issues a new token for ch, making every earlier token stale.
func (q *Sequencer) Next(ch Channel) Token {
	if q.latest == nil {
		q.latest = make(map[Channel]uint64)
	}
	q.latest[ch]++
	return Token{Channel: ch, Seq: q.latest[ch]}
}

// IsLatest reports whether t is the most recent token of its channel.
func (q *Sequencer) IsLatest(t Token) bool {
	return t.Seq != 0 && q.latest[t.Channel] == t.Seq
}

// Invalidate makes every outstanding token of ch stale, e.g. when the field
// it fills is cleared.
func (q *Sequencer) Invalidate(ch Channel) {
	q.Next(ch)
}
