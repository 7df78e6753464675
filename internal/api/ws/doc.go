// Package ws drives one panel per WebSocket connection.
//
// The browser side owns the real iframe and toolbar. It reports load events
// and toolbar edits; the server answers with navigate, ports, selection and
// title messages. The panel is released whenever the connection ends.
//
// Protocol (JSON text frames, see types.WSMessage):
//
//	in:  load{href,title} toolbar{mode,port,path} reload ping
//	out: hello{id} navigate{url} ports{ports} selection{mode,port,path}
//	     title{title} pong error{message}
package ws
