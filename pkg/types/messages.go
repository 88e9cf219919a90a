package types

// Client -> Server
// ping: {}                      every 15s while the channel is open
// start_game: {}                host only; other senders get an error frame
//
// Server -> Client
// roster_update (players_update):
//   players: [{ id, name, isVIP, isConnected }]
//   gameType?: "drawguess" | "trivia" | "wordplay" | "partypack"
//
// game_start: {}
//
// error:
//   message: string
//
// pong: {}
//
// Close codes
//   1003: request rejected (malformed), do not reconnect
//   1008: policy violation (unknown room / client), do not reconnect
//   anything else: reconnect within the retry budget
