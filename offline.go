package fxcorpus

// ProcessBuffer runs a whole buffer through a fresh chain built from ps.
// buf may be modified in place.
func ProcessBuffer(ps ParameterSet, buf *Buffer) (*Buffer, error) {
	chain, err := BuildChain(ps, buf.SampleRate, buf.Channels())
	if err != nil {
		return nil, err
	}
	return chain.Apply(buf)
}

// ProcessFile loads srcPath, applies ps and writes the result to dstPath.
// Load failures are *LoadError and write failures *WriteError; a failed
// write leaves no output behind when the codec cleans up after itself.
func ProcessFile(ps ParameterSet, srcPath, dstPath string, codec Codec) (*Buffer, error) {
	buf, err := codec.Load(srcPath)
	if err != nil {
		return nil, &LoadError{Path: srcPath, Err: err}
	}
	out, err := ProcessBuffer(ps, buf)
	if err != nil {
		return nil, err
	}
	if err := codec.Save(dstPath, out); err != nil {
		return nil, &WriteError{Path: dstPath, Err: err}
	}
	return out, nil
}
