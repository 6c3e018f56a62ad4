// Package schema loads struct definitions from YAML documents.
//
//	model: ilp32
//	structs:
//	  - name: Node
//	    fields:
//	      - {name: value, type: int}
//	      - {name: next, type: Node *}
//	  - name: Header
//	    packed: true
//	    fields:
//	      - {name: tag, type: "char[4]"}
//	      - {name: head, type: Node}
//
// Every struct name is registered before any field is defined, so a
// struct may point at itself or at structs declared later. Embedding a
// struct by value requires it to be declared earlier in the document.
package schema
