// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package lookup

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"unicode"
	"unicode/utf8"

	"github.com/siemens/multilookup/types"

	"github.com/thediveo/lxkns/log"
)

// maxTokenSize limits the size of a single whitespace-delimited token the
// scanner buffers. Longer tokens are cut at this size and the remainder up to
// the next whitespace is skipped; tokens longer than types.MaxNameLength then
// get truncated further.
const maxTokenSize = 64 * 1024

// produce runs a single producer: it claims input files from the work list
// until there are none left, queueing all hostnames from each file. It
// finally logs the number of files it serviced and registers itself as
// finished with the queue.
func (p *Pipeline) produce(id int) error {
	p.counters.producers.Add(1)
	defer p.counters.producers.Add(-1)
	// Consumers wait for all producers to finish, so this producer must
	// register as finished whichever way it leaves.
	defer p.queue.ProducerDone()

	serviced := 0
	for {
		path, ok := p.work.Claim()
		if !ok {
			break
		}
		log.Debugf("producer-%d: reading %s", id, path)
		f, err := os.Open(path)
		if err != nil {
			p.inputError(fmt.Errorf("cannot open input file: %w", err))
			log.Errorf("producer-%d: cannot open input file: %s", id, err.Error())
			p.counters.filesFailed.Add(1)
			continue
		}
		err = p.feed(id, path, f)
		f.Close()
		if err != nil {
			// The queue refused our hostnames, so there's no point in
			// claiming more work.
			return fmt.Errorf("producer-%d: %w", id, err)
		}
		serviced++
		p.counters.filesServiced.Add(1)
	}

	if err := p.services.Append(fmt.Sprintf("producer-%d serviced %d files\n", id, serviced)); err != nil {
		log.Errorf("producer-%d: %s", id, err.Error())
		p.counters.appendErrors.Add(1)
	}
	log.Debugf("producer-%d: finished after %d files", id, serviced)
	return nil
}

// feed pushes all whitespace-delimited hostnames read from r into the queue.
// Read errors only end reading the particular input; only queue errors are
// returned.
func (p *Pipeline) feed(id int, path string, r io.Reader) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 4096), maxTokenSize)
	words := &wordSplitter{max: maxTokenSize}
	scanner.Split(words.split)
	for scanner.Scan() {
		host, cut := types.TruncateName(scanner.Text())
		if cut {
			log.Warnf("producer-%d: truncated overly long hostname in %s to %d bytes",
				id, path, len(host))
			p.counters.truncated.Add(1)
		}
		if err := p.queue.Push(host); err != nil {
			return err
		}
		p.counters.queued.Add(1)
	}
	if err := scanner.Err(); err != nil {
		p.inputError(fmt.Errorf("cannot read input file %s completely: %w", path, err))
		log.Errorf("producer-%d: cannot read input file %s completely: %s", id, path, err.Error())
	}
	return nil
}

// wordSplitter splits its input into whitespace-delimited words like
// bufio.ScanWords does, but never fails on words of max bytes or more: it
// returns the first max bytes of such a word and then skips the rest of it.
type wordSplitter struct {
	max      int
	skipping bool // inside the remainder of an overly long word.
}

// split is a bufio.SplitFunc.
func (w *wordSplitter) split(data []byte, atEOF bool) (int, []byte, error) {
	skipped := 0
	for w.skipping {
		if skipped == len(data) || (!atEOF && !utf8.FullRune(data[skipped:])) {
			return skipped, nil, nil
		}
		r, width := utf8.DecodeRune(data[skipped:])
		if unicode.IsSpace(r) {
			w.skipping = false
			break
		}
		skipped += width
	}
	data = data[skipped:]
	advance, token, err := bufio.ScanWords(data, atEOF)
	if advance > 0 || token != nil || err != nil || atEOF {
		return skipped + advance, token, err
	}
	if len(data) >= w.max {
		// The scanner's buffer is full with a single word.
		w.skipping = true
		return skipped + len(data), data[:w.max], nil
	}
	return skipped, nil, nil
}
