// Package watch monitors a directory with fsnotify and hands each new media
// file to a handler, one file at a time, in arrival order.
package watch
