// Package caps parses DDC/CI capabilities strings.
//
// # Capabilities String Format
//
// A display describes itself with a parenthesized string read in
// fragments by ddc.Engine.Capabilities:
//
//	(prot(monitor)type(lcd)model(U2415)cmds(01 02 03 07 0C E3 F3)vcp(02 04 10 12 60(0F 11 12) D6(01 04 05))mccs_ver(2.1))
//	  prot     = protocol class
//	  type     = display technology
//	  model    = model name
//	  cmds     = supported DDC/CI opcodes (hex)
//	  vcp      = supported VCP codes, with permitted values in parentheses
//	  mccs_ver = MCCS version
//
// Real displays are sloppy: the outer parentheses may be missing, hex
// bytes may run together without spaces and the string may end with NUL
// padding. The parser accepts all of these.
//
// # Usage
//
//	c, err := caps.Parse(s)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if values, ok := c.FeatureValues(protocol.VCPInputSource); ok {
//	    fmt.Printf("inputs: % X\n", values)
//	}
//
// # Error Handling
//
// Unbalanced parentheses, bad hex digits and entries without a body
// return a *SyntaxError carrying the byte offset of the problem.
package caps
