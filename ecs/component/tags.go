package component

type TugTag struct{}

var TugTagComponent = NewComponent[TugTag]()
