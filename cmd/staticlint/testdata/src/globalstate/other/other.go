package other

var Shared int
