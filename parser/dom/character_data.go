package dom

// https://dom.spec.whatwg.org/#characterdata
type CharacterData struct {
	Data string
}

func (c *CharacterData) appendData(data string) {
	c.Data += data
}

// https://dom.spec.whatwg.org/#text
type Text struct {
	CharacterData
}

// https://dom.spec.whatwg.org/#interface-comment
type Comment struct {
	CharacterData
}
