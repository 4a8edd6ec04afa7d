// Package thread holds the conversation state of a run: the ordered messages exchanged with the
// model and the token usage they cost. Threads can be forked for a sub-run and joined back, and
// they convert to and from the flat transcript form used for persistence.
package thread
